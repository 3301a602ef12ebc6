// Package protocol defines the JSON messages exchanged between the table
// server and its clients over a WebSocket.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/Grosth/BlackjackCSFinal/internal/game"
	"github.com/Grosth/BlackjackCSFinal/internal/ledger"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
)

// MessageType identifies the type of message
type MessageType string

const (
	// Client -> Server
	TypeAuth    MessageType = "auth"
	TypeDeal    MessageType = "deal"
	TypeHit     MessageType = "hit"
	TypeStand   MessageType = "stand"
	TypeDouble  MessageType = "double"
	TypeProfile MessageType = "profile"
	TypeHistory MessageType = "history"

	// Server -> Client. Profile and history replies reuse the request type.
	TypeAuthResponse MessageType = "auth_response"
	TypeRoundState   MessageType = "round_state"
	TypeRoundResult  MessageType = "round_result"
	TypeError        MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message is the envelope for every frame on the wire
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	msg := &Message{
		Type:      messageType,
		Timestamp: time.Now(),
	}
	if data != nil {
		dataBytes, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = dataBytes
	}
	return msg, nil
}

// Reply creates a message answering the request with the given ID
func Reply(requestID string, messageType MessageType, data any) (*Message, error) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		return nil, err
	}
	msg.RequestID = requestID
	return msg, nil
}

// Decode unmarshals the message payload into v
func (m *Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Client -> Server payloads

type AuthData struct {
	Token string `json:"token"`
}

type DealData struct {
	Bet int `json:"bet"`
}

type HistoryRequestData struct {
	Limit int `json:"limit,omitempty"`
}

// ActionFor maps a hit/stand/double message type onto a session action
func ActionFor(mt MessageType) (session.Action, bool) {
	switch mt {
	case TypeHit:
		return session.ActionHit, true
	case TypeStand:
		return session.ActionStand, true
	case TypeDouble:
		return session.ActionDouble, true
	}
	return "", false
}

// Server -> Client payloads

type AuthResponseData struct {
	Success  bool            `json:"success"`
	UserID   string          `json:"userId,omitempty"`
	Username string          `json:"username,omitempty"`
	Profile  *ledger.Profile `json:"profile,omitempty"`
	Rules    *session.Rules  `json:"rules,omitempty"`
	// Round is set when the player still has a round in play
	Round *RoundStateData `json:"round,omitempty"`
	Error string          `json:"error,omitempty"`
}

// RoundStateData carries a round that is still in play
type RoundStateData struct {
	RoundID    string         `json:"roundId"`
	Round      game.View      `json:"round"`
	Profile    ledger.Profile `json:"profile"`
	BetOptions []int          `json:"betOptions"`
}

// RoundResultData carries a finished, settled round
type RoundResultData struct {
	RoundID string         `json:"roundId"`
	Round   game.View      `json:"round"`
	Outcome game.Outcome   `json:"outcome"`
	Profile ledger.Profile `json:"profile"`
}

type ProfileData struct {
	Profile ledger.Profile `json:"profile"`
	WinRate float64        `json:"winRate"`
}

type HistoryData struct {
	Records []ledger.Record `json:"records"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StateMessage turns a session state into a round_state or round_result
// reply, depending on whether the round has finished.
func StateMessage(requestID string, st session.State, betOptions []int) (*Message, error) {
	if st.Outcome != nil {
		return Reply(requestID, TypeRoundResult, RoundResultData{
			RoundID: st.RoundID,
			Round:   st.Round,
			Outcome: *st.Outcome,
			Profile: st.Profile,
		})
	}
	return Reply(requestID, TypeRoundState, RoundStateData{
		RoundID:    st.RoundID,
		Round:      st.Round,
		Profile:    st.Profile,
		BetOptions: betOptions,
	})
}

// State decodes a round_state or round_result message back into a session
// state.
func (m *Message) State() (session.State, error) {
	switch m.Type {
	case TypeRoundState:
		var data RoundStateData
		if err := m.Decode(&data); err != nil {
			return session.State{}, err
		}
		return session.State{RoundID: data.RoundID, Round: data.Round, Profile: data.Profile}, nil
	case TypeRoundResult:
		var data RoundResultData
		if err := m.Decode(&data); err != nil {
			return session.State{}, err
		}
		return session.State{RoundID: data.RoundID, Round: data.Round, Outcome: &data.Outcome, Profile: data.Profile}, nil
	}
	return session.State{}, ErrUnexpectedMessage
}
