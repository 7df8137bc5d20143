package dto

// NextQuestionResponse — выдаваемый игроку вопрос.
// Правильный ответ и пояснение намеренно отсутствуют.
type NextQuestionResponse struct {
	QuestionID   uint     `json:"question_id"`
	Prompt       string   `json:"prompt"`
	Choices      []string `json:"choices"`
	Difficulty   int      `json:"difficulty"`
	StateVersion int64    `json:"state_version"`
}

// SubmitAnswerRequest — тело запроса на отправку ответа.
// Ключ идемпотентности передаётся заголовком Idempotency-Key.
type SubmitAnswerRequest struct {
	ChoiceIndex  *int  `json:"choice_index" binding:"required,min=0,max=3"`
	StateVersion int64 `json:"state_version" binding:"min=0"`
}

// AnswerResultResponse — итог обработки ответа.
// Пояснение раскрывается только вместе с результатом.
type AnswerResultResponse struct {
	Correct       bool    `json:"correct"`
	CorrectIndex  int     `json:"correct_index"`
	Explanation   string  `json:"explanation,omitempty"`
	ScoreDelta    int64   `json:"score_delta"`
	TotalScore    int64   `json:"total_score"`
	Streak        int     `json:"streak"`
	MaxStreak     int     `json:"max_streak"`
	NewDifficulty float64 `json:"new_difficulty"`
	StateVersion  int64   `json:"state_version"`
}

// UserStatsResponse — агрегированная статистика игрока.
type UserStatsResponse struct {
	UserID            uint    `json:"user_id"`
	TotalScore        int64   `json:"total_score"`
	CurrentStreak     int     `json:"current_streak"`
	MaxStreak         int     `json:"max_streak"`
	CurrentDifficulty float64 `json:"current_difficulty"`
	TotalAnswered     int64   `json:"total_answered"`
	CorrectAnswers    int64   `json:"correct_answers"`
	Accuracy          float64 `json:"accuracy"`
}

// CreateQuestionRequest — админское добавление вопроса в банк.
type CreateQuestionRequest struct {
	Prompt       string   `json:"prompt" binding:"required,min=3"`
	Choices      []string `json:"choices" binding:"required,min=2,max=6"`
	CorrectIndex *int     `json:"correct_index" binding:"required,min=0"`
	Explanation  string   `json:"explanation"`
	Difficulty   int      `json:"difficulty" binding:"required,min=1,max=10"`
}

// CreateQuestionsBatchRequest — пакетная загрузка вопросов.
type CreateQuestionsBatchRequest struct {
	Questions []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
