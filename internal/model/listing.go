package model

import (
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ==================== 状态与枚举 ====================

// ListingStatus 商品状态
// 状态只能由托管交易状态机驱动变更，其他路径一律只读
type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available" // 在售
	ListingStatusReserved  ListingStatus = "reserved"  // 已被托管交易锁定
	ListingStatusSold      ListingStatus = "sold"      // 已售出
)

// PostType 发布类型
type PostType string

const (
	PostTypeProduct PostType = "product" // 普通二手商品
	PostTypeService PostType = "service" // 技能服务
	PostTypeFarmer  PostType = "farmer"  // 农产品
	PostTypeStudent PostType = "student" // 学生认证资料
)

// Condition 成色（仅 product / farmer 类型有效）
type Condition string

const (
	ConditionNew         Condition = "New"
	ConditionUsed        Condition = "Used"
	ConditionRefurbished Condition = "Refurbished"
)

// ValidPostType 校验发布类型取值
func ValidPostType(t PostType) bool {
	switch t {
	case PostTypeProduct, PostTypeService, PostTypeFarmer, PostTypeStudent:
		return true
	}
	return false
}

// ValidCondition 校验成色取值
func ValidCondition(c Condition) bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return true
	}
	return false
}

// HasCondition 该发布类型是否携带成色字段
func (t PostType) HasCondition() bool {
	return t == PostTypeProduct || t == PostTypeFarmer
}

// ==================== Listing 实体 ====================

type Listing struct {
	BaseModel

	// --- 基本信息 ---
	Title       string  `gorm:"size:255;not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"not null;default:0" json:"price"`
	Category    string  `gorm:"size:100;index" json:"category"`

	// --- 类型与成色 ---
	PostType  PostType  `gorm:"size:20;index;not null" json:"post_type"`
	Condition Condition `gorm:"size:20" json:"condition,omitempty"`

	// --- 类型附加属性（按 post_type 取对应结构） ---
	Attributes datatypes.JSON `gorm:"type:jsonb" json:"attributes,omitempty"`

	// --- 位置 ---
	LocationName string   `gorm:"size:255" json:"location_name"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`

	// --- 归属与状态 ---
	SellerID int64          `gorm:"index;not null" json:"seller_id"`
	Status   ListingStatus  `gorm:"size:20;index;default:'available'" json:"status"`
	Images   pq.StringArray `gorm:"type:text[]" json:"images,omitempty"`
}

func (Listing) TableName() string {
	return "listings"
}

// HasCoordinates 是否携带有效坐标
// 缺坐标的商品不参与距离计算，调用方不得伪造距离
func (l *Listing) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// ==================== 类型附加属性 ====================

// ServiceAttributes 服务类附加属性
type ServiceAttributes struct {
	Experience string `json:"experience"`
	SkillLevel string `json:"skill_level"`
}

// FarmerAttributes 农产品类附加属性
type FarmerAttributes struct {
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	HarvestDate string  `json:"harvest_date"`
}

// StudentAttributes 学生类附加属性
type StudentAttributes struct {
	Institution  string `json:"institution"`
	DocumentType string `json:"document_type"`
}

// EncodeAttributes 按发布类型打包附加属性
// 跨类型传入的属性在这里直接拒绝，保证实体内不会混入无关字段
func EncodeAttributes(t PostType, svc *ServiceAttributes, farm *FarmerAttributes, stu *StudentAttributes) (datatypes.JSON, error) {
	switch t {
	case PostTypeProduct:
		if svc != nil || farm != nil || stu != nil {
			return nil, fmt.Errorf("post_type %s 不接受附加属性", t)
		}
		return nil, nil
	case PostTypeService:
		if farm != nil || stu != nil {
			return nil, fmt.Errorf("post_type %s 只接受 service 属性", t)
		}
		if svc == nil {
			return nil, nil
		}
		return json.Marshal(svc)
	case PostTypeFarmer:
		if svc != nil || stu != nil {
			return nil, fmt.Errorf("post_type %s 只接受 farmer 属性", t)
		}
		if farm == nil {
			return nil, nil
		}
		return json.Marshal(farm)
	case PostTypeStudent:
		if svc != nil || farm != nil {
			return nil, fmt.Errorf("post_type %s 只接受 student 属性", t)
		}
		if stu == nil {
			return nil, nil
		}
		return json.Marshal(stu)
	}
	return nil, fmt.Errorf("未知的 post_type: %s", t)
}
