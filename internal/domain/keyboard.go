package domain

// ButtonColor is the visual style of a keyboard button.
type ButtonColor string

const (
	ColorPrimary   ButtonColor = "primary"
	ColorSecondary ButtonColor = "secondary"
	ColorNegative  ButtonColor = "negative"
	ColorPositive  ButtonColor = "positive"
)

// Button sends Command as a structured payload when pressed.
type Button struct {
	Label   string
	Command string
	Color   ButtonColor
}

// Keyboard is a reply keyboard attached to an outbound message.
type Keyboard struct {
	OneTime bool
	Rows    [][]Button
}
