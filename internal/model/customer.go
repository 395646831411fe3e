package model

type Customer struct {
	BaseModel
	Auditable
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Email   string `gorm:"type:varchar(255);index" json:"email"`
	Phone   string `gorm:"type:varchar(32)" json:"phone"`
	Address string `gorm:"type:text" json:"address"`
}

func (Customer) TableName() string { return "customer" }
