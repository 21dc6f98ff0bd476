package models

type Role string

const (
	RoleTherapist Role = "therapist"
	RolePatient   Role = "patient"
	RoleAdmin     Role = "admin"
)

// IsValid проверяет, что роль известна
func (r Role) IsValid() bool {
	switch r {
	case RoleTherapist, RolePatient, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	ChatID    *int64 `gorm:"uniqueIndex" json:"chat_id,omitempty"` // nil для пользователей только API
	Username  string `json:"username"`
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `gorm:"type:varchar(20);not null;default:'patient'" json:"role"`
}

// IsAdmin проверяет, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsTherapist() bool {
	return u.Role == RoleTherapist
}

func (u *User) IsPatient() bool {
	return u.Role == RolePatient
}

// FullName возвращает имя для отображения
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// TableName задает имя таблицы в БД
func (User) TableName() string {
	return "users"
}
