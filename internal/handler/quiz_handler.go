package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/brainbolt-api/internal/handler/dto"
	"github.com/yourusername/brainbolt-api/internal/service"
)

// idempotencyHeader — заголовок с клиентским ключом идемпотентности
const idempotencyHeader = "Idempotency-Key"

// QuizHandler обрабатывает игровой цикл "вопрос → ответ" и статистику
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler создает новый обработчик викторины
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// NextQuestion выдает пользователю следующий вопрос
func (h *QuizHandler) NextQuestion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Пользователь не аутентифицирован", "error_type": "unauthorized"})
		return
	}

	resp, err := h.quizService.GetNextQuestion(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitAnswer принимает ответ пользователя на активный вопрос
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Пользователь не аутентифицирован", "error_type": "unauthorized"})
		return
	}

	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	idempotencyKey := c.GetHeader(idempotencyHeader)

	result, err := h.quizService.SubmitAnswer(userID, *req.ChoiceIndex, req.StateVersion, idempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Stats возвращает статистику текущего пользователя
func (h *QuizHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Пользователь не аутентифицирован", "error_type": "unauthorized"})
		return
	}

	stats, err := h.quizService.GetUserStats(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CreateQuestions добавляет вопросы в банк (только для администраторов)
func (h *QuizHandler) CreateQuestions(c *gin.Context) {
	var req dto.CreateQuestionsBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	count, err := h.quizService.CreateQuestions(req.Questions)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[QuizHandler] Администратор добавил %d вопросов", count)
	c.JSON(http.StatusCreated, gin.H{"created": count})
}
