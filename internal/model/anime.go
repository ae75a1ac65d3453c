package model

import "time"

// 番剧类型
const (
	AnimeClassTV   = "TV"
	AnimeClassFilm = "FILM"
	AnimeClassOVA  = "OVA"
	AnimeClassONA  = "ONA"
)

// Anime 番剧条目，数据来源于 bangumi 抓取或手动录入
type Anime struct {
	Base
	UID            string     `gorm:"type:varchar(32);not null;uniqueIndex" json:"uid"`
	CnName         string     `gorm:"type:varchar(255);not null" json:"cn_name"`
	OriginalTitle  string     `gorm:"type:varchar(255)" json:"original_title"`
	Aliases        string     `gorm:"type:text" json:"aliases"`
	CoverURL       string     `gorm:"type:varchar(500)" json:"cover_url"`
	Plot           string     `gorm:"type:text" json:"plot"`
	Tags           string     `gorm:"type:varchar(255)" json:"tags"`
	Studio         string     `gorm:"type:varchar(255)" json:"studio"`
	Source         string     `gorm:"type:varchar(50)" json:"source"`
	OriginalAuthor string     `gorm:"type:varchar(255)" json:"original_author"`
	Writer         string     `gorm:"type:varchar(255)" json:"writer"`
	Director       string     `gorm:"type:varchar(255)" json:"director"`
	AnimeClass     string     `gorm:"type:varchar(10);not null;default:'TV';index" json:"anime_class"`
	Country        string     `gorm:"type:varchar(50);index" json:"country"`
	AirDate        *time.Time `gorm:"type:date" json:"air_date"`
	Episodes       string     `gorm:"type:varchar(20)" json:"episodes"`
	Rating         float64    `gorm:"type:decimal(3,1);not null;default:0" json:"rating"`
	MyRating       float64    `gorm:"type:decimal(3,1);not null;default:0" json:"my_rating"`
	WatchDate      *time.Time `gorm:"type:date" json:"watch_date"`
	Website        string     `gorm:"type:varchar(500)" json:"website"`
	Cast           string     `gorm:"type:text" json:"cast"`
	MediaSource    string     `gorm:"type:varchar(20);not null;default:'bangumi'" json:"media_source"`
}

// TableName 指定表名
func (Anime) TableName() string {
	return "anime"
}
