package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// DBContextKey - это ключ, по которому мы будем хранить *gorm.DB в context
const DBContextKey = contextKey("db")

// ActorContextKey - auth.Actor текущего запроса (в gin.Context)
const ActorContextKey = contextKey("actor")

// UserIDContextKey - id аутентифицированного пользователя (в gin.Context)
const UserIDContextKey = contextKey("userID")
