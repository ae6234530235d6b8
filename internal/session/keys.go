package session

import "errors"

// W3C WebDriver key code points.
const (
	KeyBackspace = "\ue003"
	KeyTab       = "\ue004"
	KeyEnter     = "\ue007"
	KeyShift     = "\ue008"
	KeyControl   = "\ue009"
	KeyAlt       = "\ue00a"
	KeyEscape    = "\ue00c"
	KeyPageUp    = "\ue00e"
	KeyPageDown  = "\ue00f"
	KeyEnd       = "\ue010"
	KeyHome      = "\ue011"
	KeyLeft      = "\ue012"
	KeyUp        = "\ue013"
	KeyRight     = "\ue014"
	KeyDown      = "\ue015"
	KeyDelete    = "\ue017"
	KeyMeta      = "\ue03d"
)

var (
	ErrNoSuchElement = errors.New("no such element")
	ErrNoSuchWindow  = errors.New("no such window")
	ErrNoSuchCookie  = errors.New("no such cookie")
	ErrNoSuchFrame   = errors.New("no such frame")
	ErrNoAlert       = errors.New("no such alert")
)
