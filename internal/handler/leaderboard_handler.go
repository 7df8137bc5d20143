package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/brainbolt-api/internal/domain/entity"
	"github.com/yourusername/brainbolt-api/internal/handler/dto"
	"github.com/yourusername/brainbolt-api/internal/service"
)

// LeaderboardHandler обрабатывает запросы к таблицам лидеров
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler создает новый обработчик лидербордов
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetLeaderboard возвращает топ-N лидерборда
// GET /api/leaderboard?kind=score|streak&limit=N
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	kind := c.DefaultQuery("kind", entity.LeaderboardKindScore)
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный параметр limit", "error_type": "validation_error"})
		return
	}

	resp, err := h.leaderboardService.GetLeaderboard(kind, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetMyRank возвращает позицию текущего пользователя в лидерборде
// GET /api/leaderboard/me?kind=score|streak
func (h *LeaderboardHandler) GetMyRank(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Пользователь не аутентифицирован", "error_type": "unauthorized"})
		return
	}

	kind := c.DefaultQuery("kind", entity.LeaderboardKindScore)

	resp, err := h.leaderboardService.GetUserRank(kind, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Rebuild восстанавливает кеш лидербордов из БД (только для администраторов)
func (h *LeaderboardHandler) Rebuild(c *gin.Context) {
	if err := h.leaderboardService.RebuildAll(); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка восстановления лидербордов: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "rebuilt"})
}

// Export экспортирует лидерборд в CSV или Excel (только для администраторов)
// GET /api/admin/leaderboard/export?kind=score|streak&format=csv|xlsx
func (h *LeaderboardHandler) Export(c *gin.Context) {
	kind := c.DefaultQuery("kind", entity.LeaderboardKindScore)
	format := c.DefaultQuery("format", "csv")

	// Для экспорта берём максимум, отдаваемый сервисом
	resp, err := h.leaderboardService.GetLeaderboard(kind, 100)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("leaderboard_%s_%s", kind, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, resp.Entries, filename)
	default:
		h.exportCSV(c, resp.Entries, filename)
	}
}

// exportCSV экспортирует лидерборд в CSV с правильным экранированием спецсимволов
func (h *LeaderboardHandler) exportCSV(c *gin.Context, entries []dto.LeaderboardEntry, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Место", "Пользователь", "Значение"})
	for _, e := range entries {
		writer.Write([]string{
			strconv.Itoa(e.Rank),
			sanitizeForExcel(e.Username),
			strconv.FormatInt(e.Value, 10),
		})
	}
}

// exportXLSX экспортирует лидерборд в Excel с использованием StreamWriter
func (h *LeaderboardHandler) exportXLSX(c *gin.Context, entries []dto.LeaderboardEntry, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Лидерборд"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[LeaderboardHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Место", "Пользователь", "Значение"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка записи заголовков: %v", err)
	}

	for i, e := range entries {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{e.Rank, sanitizeForExcel(e.Username), e.Value}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[LeaderboardHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка при Flush: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[LeaderboardHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
