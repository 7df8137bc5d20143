package dto

// LeaderboardEntry — одна строка таблицы лидеров.
// Value интерпретируется по kind: суммарный счёт или максимальная серия.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Value    int64  `json:"value"`
}

// LeaderboardResponse — таблица лидеров запрошенного вида.
type LeaderboardResponse struct {
	Kind    string             `json:"kind"`
	Entries []LeaderboardEntry `json:"entries"`
}

// UserRankResponse — позиция игрока в таблице (nil — вне таблицы).
type UserRankResponse struct {
	Kind   string `json:"kind"`
	UserID uint   `json:"user_id"`
	Rank   *int64 `json:"rank"`
}
