package models

// QuizQuestion is one entry of the static quiz bank.
type QuizQuestion struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	Answer    string   `json:"answer"`
	PlaceSlug string   `json:"placeSlug,omitempty"`
}

// QuizSet is a random draw from the bank. Answers are stripped before
// the set leaves the server.
type QuizSet struct {
	ID        string         `json:"id"`
	Questions []QuizQuestion `json:"questions"`
}

type QuizAnswer struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type QuizResult struct {
	SetID   string          `json:"setId"`
	Correct int             `json:"correct"`
	Total   int             `json:"total"`
	Score   float64         `json:"score"`
	Details map[string]bool `json:"details"`
}
