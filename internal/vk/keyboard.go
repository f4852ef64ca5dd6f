package vk

import (
	"encoding/json"
	"fmt"

	"github.com/candyxpe/supportbot/internal/domain"
)

type wireKeyboard struct {
	OneTime bool           `json:"one_time"`
	Buttons [][]wireButton `json:"buttons"`
}

type wireButton struct {
	Action wireAction `json:"action"`
	Color  string     `json:"color,omitempty"`
}

type wireAction struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Payload string `json:"payload,omitempty"`
}

type commandPayload struct {
	Command string `json:"command"`
}

// MarshalKeyboard encodes a keyboard in the messages.send wire format.
// Each button carries {"command": ...} as its payload.
func MarshalKeyboard(kb domain.Keyboard) (string, error) {
	wire := wireKeyboard{OneTime: kb.OneTime, Buttons: make([][]wireButton, 0, len(kb.Rows))}
	for _, row := range kb.Rows {
		buttons := make([]wireButton, 0, len(row))
		for _, b := range row {
			payload, err := json.Marshal(commandPayload{Command: b.Command})
			if err != nil {
				return "", fmt.Errorf("encode button payload: %w", err)
			}
			buttons = append(buttons, wireButton{
				Action: wireAction{Type: "text", Label: b.Label, Payload: string(payload)},
				Color:  string(b.Color),
			})
		}
		wire.Buttons = append(wire.Buttons, buttons)
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("encode keyboard: %w", err)
	}
	return string(data), nil
}
