package dto

import "time"

// Public API payloads. Field names are camelCase because they are the wire
// contract with the web client, fingerprint keys included.

// CycleInfo is the public view of a voting cycle
type CycleInfo struct {
	ID              uint       `json:"id"`
	StartAt         time.Time  `json:"startAt"`
	EndAt           time.Time  `json:"endAt"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
	MaxVotesPerUser int        `json:"maxVotesPerUser"`
}

// PublicConfigResponse is returned by GET /config
type PublicConfigResponse struct {
	ActiveCycle    *CycleInfo `json:"activeCycle"`
	HasActiveCycle bool       `json:"hasActiveCycle"`
	CloudName      string     `json:"cloudName"`
	ShowLikeButton bool       `json:"showLikeButton"`
}

// ContenderItem is one entry in the public contender list
type ContenderItem struct {
	ID            uint     `json:"id"`
	Nickname      string   `json:"nickname"`
	ImagePublicID string   `json:"imagePublicId"`
	Videos        []string `json:"videos"`
	Status        string   `json:"status"`
	LoveCount     int64    `json:"loveCount"`
	IsLovedByUser bool     `json:"isLovedByUser"`
}

// ListContendersResponse is returned by GET /contenders
type ListContendersResponse struct {
	Contenders []ContenderItem `json:"contenders"`
}

// GuessWord is one aggregated guess with its frequency
type GuessWord struct {
	Word  string `json:"word"`
	Count int64  `json:"count"`
}

// ContenderDetailResponse is returned by GET /contenders/:id
type ContenderDetailResponse struct {
	ContenderItem
	GuessWords []GuessWord `json:"guessWords"`
}

// ToggleLoveRequest is the body of POST /contenders/:id/love
type ToggleLoveRequest struct {
	Fingerprint map[string]any `json:"fingerprint" validate:"required"`
}

// ToggleLoveResponse reports the device's love state after the toggle
type ToggleLoveResponse struct {
	Loved     bool  `json:"loved"`
	LoveCount int64 `json:"loveCount"`
}

// SubmitGuessRequest is the body of POST /contenders/:id/guess
type SubmitGuessRequest struct {
	DisplayName string         `json:"displayName" validate:"required,max=100"`
	GuessText   string         `json:"guessText" validate:"required,max=255"`
	Fingerprint map[string]any `json:"fingerprint" validate:"required"`
}

// SubmitGuessResponse is returned by POST /contenders/:id/guess
type SubmitGuessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VoteInfo is the device's current ballot as shown by GET /vote
type VoteInfo struct {
	DisplayName string `json:"displayName"`
	Selections  []uint `json:"selections"`
}

// VoteStatusResponse is returned by GET /vote
type VoteStatusResponse struct {
	HasActiveCycle  bool       `json:"hasActiveCycle"`
	Cycle           *CycleInfo `json:"cycle,omitempty"`
	HasVoted        bool       `json:"hasVoted"`
	Vote            *VoteInfo  `json:"vote,omitempty"`
	MaxVotesPerUser int        `json:"maxVotesPerUser"`
}

// SubmitVoteRequest is the body of POST /vote
type SubmitVoteRequest struct {
	DisplayName string         `json:"displayName" validate:"required,max=100"`
	Selections  []uint         `json:"selections" validate:"required,min=1"`
	Fingerprint map[string]any `json:"fingerprint" validate:"required"`
}

// SubmitVoteResponse is returned by POST /vote
type SubmitVoteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	VoteID  uint   `json:"voteId"`
	Updated bool   `json:"updated"`
}
