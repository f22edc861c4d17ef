package model

// UserModel is the read-only view of users needed to name the actor of an event.
type UserModel struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey"`
	Username string `gorm:"column:username;type:varchar(50);not null"`
}

func (UserModel) TableName() string {
	return "users"
}
