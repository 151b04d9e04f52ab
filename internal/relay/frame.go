// ABOUTME: Wire frame types for the WebSocket chat protocol
// ABOUTME: Frames carry chat messages and system notices to room participants

package relay

import "github.com/attack-capital/chat-relay/internal/conversation"

// Frame type discriminators.
const (
	FrameMessage = "message"
	FrameSystem  = "system"
)

// AISender is the sender name on frames produced by an agent persona.
const AISender = "ai-assistant"

// Frame is one WebSocket payload delivered to a room participant.
//
// IsUser is recipient-relative on user frames: true only on the copy
// delivered back to the author, so clients can style their own messages.
type Frame struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Sender   string `json:"sender"`
	Username string `json:"username,omitempty"`
	IsUser   bool   `json:"isUser"`
}

// replyFrame converts an orchestrator reply into its wire form. Apologies
// and announcements become system frames; persona replies come from the
// assistant sender.
func replyFrame(reply conversation.Reply) Frame {
	if reply.System {
		return Frame{Type: FrameSystem, Content: reply.Text, Sender: conversation.SystemSender}
	}
	return Frame{Type: FrameMessage, Content: reply.Text, Sender: AISender}
}

// systemFrame builds a room-level notice such as join and leave messages.
func systemFrame(content string) Frame {
	return Frame{Type: FrameSystem, Content: content, Sender: conversation.SystemSender}
}
