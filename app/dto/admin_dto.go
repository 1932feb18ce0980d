package dto

import "time"

// AdminLoginRequest is the body of POST /admin/login
type AdminLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// AdminLoginResponse carries the bearer token for subsequent admin calls
type AdminLoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AdminSessionResponse is returned by GET /admin/session
type AdminSessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// AdminContenderItem is one entry in the admin contender list
type AdminContenderItem struct {
	ID            uint       `json:"id"`
	Nickname      string     `json:"nickname"`
	ImagePublicID string     `json:"imagePublicId"`
	Videos        []string   `json:"videos"`
	Status        string     `json:"status"`
	LoveCount     int64      `json:"loveCount"`
	GuessCount    int64      `json:"guessCount"`
	VoteCount     int64      `json:"voteCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// ListAdminContendersResponse is returned by GET /admin/contenders
type ListAdminContendersResponse struct {
	Contenders []AdminContenderItem `json:"contenders"`
}

// CreateContenderRequest is the body of POST /admin/contenders
type CreateContenderRequest struct {
	Nickname      string   `json:"nickname" validate:"required,max=100"`
	ImagePublicID string   `json:"imagePublicId" validate:"required,max=255"`
	Videos        []string `json:"videos" validate:"omitempty,dive,max=255"`
	Status        string   `json:"status" validate:"omitempty,oneof=active inactive hidden"`
}

// UpdateContenderRequest is the body of PUT /admin/contenders/:id; nil fields are untouched
type UpdateContenderRequest struct {
	Nickname      *string   `json:"nickname" validate:"omitempty,max=100"`
	ImagePublicID *string   `json:"imagePublicId" validate:"omitempty,max=255"`
	Videos        *[]string `json:"videos" validate:"omitempty,dive,max=255"`
	Status        *string   `json:"status" validate:"omitempty,oneof=active inactive hidden"`
}

// GuessItem is one guess row in admin listings
type GuessItem struct {
	ID          uint      `json:"id"`
	ContenderID uint      `json:"contenderId"`
	DisplayName string    `json:"displayName"`
	GuessText   string    `json:"guessText"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListGuessesResponse is returned by GET /admin/contenders/:id/guesses
type ListGuessesResponse struct {
	Guesses []GuessItem `json:"guesses"`
}

// ContenderStatsResponse is returned by GET /admin/contenders/:id/stats
type ContenderStatsResponse struct {
	ContenderID uint        `json:"contenderId"`
	Nickname    string      `json:"nickname"`
	LoveCount   int64       `json:"loveCount"`
	GuessCount  int64       `json:"guessCount"`
	VoteCount   int64       `json:"voteCount"`
	GuessWords  []GuessWord `json:"guessWords"`
}

// UpdateGuessRequest is the body of PUT /admin/guesses/:id
type UpdateGuessRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=100"`
	GuessText   *string `json:"guessText" validate:"omitempty,max=255"`
}

// AdminCycleItem is one entry in the admin cycle list
type AdminCycleItem struct {
	ID              uint       `json:"id"`
	StartAt         time.Time  `json:"startAt"`
	EndAt           time.Time  `json:"endAt"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
	MaxVotesPerUser int        `json:"maxVotesPerUser"`
	Status          string     `json:"status"`
	EffectiveEndAt  time.Time  `json:"effectiveEndAt"`
	VoteCount       int64      `json:"voteCount"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ListCyclesResponse is returned by GET /admin/cycles
type ListCyclesResponse struct {
	Cycles []AdminCycleItem `json:"cycles"`
}

// CreateCycleRequest is the body of POST /admin/cycles
type CreateCycleRequest struct {
	StartAt         time.Time `json:"startAt" validate:"required"`
	EndAt           time.Time `json:"endAt" validate:"required"`
	MaxVotesPerUser *int      `json:"maxVotesPerUser" validate:"omitempty,min=1,max=50"`
}

// UpdateCycleRequest is the body of PUT /admin/cycles/:id; nil fields are untouched
type UpdateCycleRequest struct {
	StartAt         *time.Time `json:"startAt"`
	EndAt           *time.Time `json:"endAt"`
	MaxVotesPerUser *int       `json:"maxVotesPerUser" validate:"omitempty,min=1,max=50"`
}

// ContenderResult is one contender's tally in cycle results
type ContenderResult struct {
	ContenderID uint     `json:"contenderId"`
	Nickname    string   `json:"nickname"`
	VoteCount   int64    `json:"voteCount"`
	Voters      []string `json:"voters"`
}

// CycleResultsResponse is returned by GET /admin/cycles/:id/results
type CycleResultsResponse struct {
	CycleID    uint              `json:"cycleId"`
	TotalVotes int64             `json:"totalVotes"`
	Results    []ContenderResult `json:"results"`
}

// AppSettingsResponse is returned by GET /admin/settings
type AppSettingsResponse struct {
	ShowLikeButton bool `json:"showLikeButton"`
}

// UpdateAppSettingsRequest is the body of PUT /admin/settings
type UpdateAppSettingsRequest struct {
	ShowLikeButton *bool `json:"showLikeButton" validate:"required"`
}
