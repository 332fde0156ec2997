package models

import "time"

// User - учётные данные пользователя Feedly.
type User struct {
	ID        string
	AuthToken string
}

// Category представляет категорию (папку) подписок пользователя.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Entry представляет одну запись из потока Feedly.
// OriginURL берётся из поля originId ответа.
type Entry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	OriginURL   string `json:"origin_url"`
	OriginTitle string `json:"origin_title"`
}

// Equal сравнивает записи только по ID.
func (e Entry) Equal(other Entry) bool {
	return e.ID == other.ID
}

// Feed представляет подписку пользователя.
type Feed struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	VisualURL  string     `json:"visual_url"`
	SortID     string     `json:"sort_id"`
	Updated    time.Time  `json:"updated"`
	Added      time.Time  `json:"added"`
	Categories []Category `json:"categories"`
}

// UnreadCount - количество непрочитанных записей в потоке (категории или ленте).
type UnreadCount struct {
	ID      string    `json:"id"`
	Count   int       `json:"count"`
	Updated time.Time `json:"updated"`
}

// Profile - профиль пользователя, возвращаемый /profile.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
