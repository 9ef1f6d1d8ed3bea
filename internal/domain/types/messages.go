package types

// Envelope is what travels between peers: a tunnel frame, plus the handshake
// parameters on messages sent before the initiator has heard back.
type Envelope struct {
	From      Username        `json:"from"`
	To        Username        `json:"to"`
	Initial   *InitialMessage `json:"initial,omitempty"`
	Frame     []byte          `json:"frame"`
	Timestamp int64           `json:"timestamp"`
}

// DecryptedMessage is returned by MessageService.Open.
type DecryptedMessage struct {
	From      Username `json:"from"`
	To        Username `json:"to"`
	Plaintext []byte   `json:"plaintext"`
	Timestamp int64    `json:"timestamp"`
}
