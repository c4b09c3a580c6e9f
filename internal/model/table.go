package model

// Table status values.
const (
	TableFree     = "free"
	TableReserved = "reserved"
	TableOccupied = "occupied"
)

// Table is a physical table. Its CRUD lives outside this service; we only
// read it and flip its status.
type Table struct {
	ID       uint   `gorm:"primaryKey"`
	Number   int    `gorm:"not null"`
	Capacity int    `gorm:"not null;default:4"`
	AreaID   *uint  `gorm:"index"`
	Status   string `gorm:"type:varchar(20);not null;default:'free'"`
	Active   bool   `gorm:"not null;default:true"`

	Area *Area `gorm:"foreignKey:AreaID"`
}

func (Table) TableName() string { return "mesas" }

// Area groups tables (terrace, main hall, bar…).
type Area struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"type:varchar(100);not null"`
	Active bool   `gorm:"not null;default:true"`
}

func (Area) TableName() string { return "areas" }

// AreaName is nil-safe.
func (t *Table) AreaName() string {
	if t == nil || t.Area == nil {
		return ""
	}
	return t.Area.Name
}
