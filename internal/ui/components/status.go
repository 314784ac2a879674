package components

import sessiondto "mobtime/internal/modules/session/dto"

// StatusMsg carries a fresh session status back to the root model after any
// session command. Note is shown in the status bar when set.
type StatusMsg struct {
	Status sessiondto.StatusOutput
	Note   string
	Err    error
}
