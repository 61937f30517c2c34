package models

// UserRegisteredEvent — событие о регистрации нового пользователя,
// публикуется в RabbitMQ для последующих консьюмеров (например, приветственных писем).
type UserRegisteredEvent struct {
	UserUID  string `json:"user_uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
