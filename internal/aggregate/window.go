package aggregate

import (
	"fmt"
	"time"
)

// WindowDuration is the duration of a query log window.
const WindowDuration = 1 * time.Minute

// Window is the last whole minute before a moment.  Start is inclusive and End
// is exclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the last whole minute before now.  If now is a whole
// minute itself, the window ends at now.
func NewWindow(now time.Time) (w Window) {
	const secs = int64(WindowDuration / time.Second)

	end := time.Unix(now.Unix()/secs*secs, 0)

	return Window{
		Start: end.Add(-WindowDuration),
		End:   end,
	}
}

// type check
var _ fmt.Stringer = Window{}

// String implements the [fmt.Stringer] interface for Window.
func (w Window) String() (s string) {
	return fmt.Sprintf("[%d, %d)", w.Start.Unix(), w.End.Unix())
}
