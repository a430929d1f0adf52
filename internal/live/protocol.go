package live

import "encoding/json"

type MessageType string

// Inbound messages, sent by the page.
const (
	MsgScroll  MessageType = "scroll"
	MsgToggle  MessageType = "toggle"
	MsgOverlay MessageType = "overlay"
	MsgFollow  MessageType = "follow"
	MsgSidebar MessageType = "sidebar"
	MsgProfile MessageType = "profile"
	MsgLogout  MessageType = "logout"
)

// Outbound messages. MsgSidebar is also sent back to ask the page layout
// to toggle its sidebar.
const (
	MsgRender   MessageType = "render"
	MsgNavigate MessageType = "navigate"
	MsgError    MessageType = "error"
)

// Fragment targets: the element ids whose outer HTML a render replaces.
const (
	TargetPublicNavbar = "public-navbar"
	TargetSideNavbar   = "side-navbar"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// inbound is a decoded frame from the page; Payload is parsed per type.
type inbound struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ScrollPayload struct {
	Offset float64 `json:"offset"`
}

type FollowPayload struct {
	Path string `json:"path"`
}

type RenderPayload struct {
	Target string `json:"target"`
	HTML   string `json:"html"`
}

type NavigatePayload struct {
	Path string `json:"path"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
