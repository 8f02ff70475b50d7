package model

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ActionWelcome              = "welcome"
	ActionCompleteProfile      = "complete_profile"
	ActionScheduleConsultation = "schedule_consultation"
	ActionReferFriend          = "refer_friend"
	ActionCompleteVideo        = "complete_video"
	ActionCompleteConsultation = "complete_consultation"
	ActionOrderPurchase        = "order_purchase"
)

// ClaimPolicy 动作的可重复策略
type ClaimPolicy int

const (
	// PolicyOneTime 每个账户只能领取一次
	PolicyOneTime ClaimPolicy = iota + 1
	// PolicyOneTimePerKey 每个账户对每个 key（如视频ID）只能领取一次
	PolicyOneTimePerKey
	// PolicyUnlimited 不限次数
	PolicyUnlimited
)

func (p ClaimPolicy) String() string {
	switch p {
	case PolicyOneTime:
		return "one_time"
	case PolicyOneTimePerKey:
		return "one_time_per_key"
	case PolicyUnlimited:
		return "unlimited"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownAction = errors.New("未知的积分动作")
	ErrInvalidAction = errors.New("积分动作参数不合法")
)

// ActionDefinition 积分动作定义
type ActionDefinition struct {
	Code   string      `json:"code"`
	Points int64       `json:"points"`
	Policy ClaimPolicy `json:"-"`
	// Variable 积分由调用方计算（如订单），不能通过 Award 直接领取
	Variable bool `json:"variable,omitempty"`
	// ProfessionalGranted 只能由专业人员为客户发放
	ProfessionalGranted bool   `json:"professional_granted,omitempty"`
	Description         string `json:"description"`
}

// ClaimKey 计算领取唯一键，不可重复的动作以此去重
func (d ActionDefinition) ClaimKey(key string) string {
	if d.Policy == PolicyOneTimePerKey {
		return d.Code + ":" + key
	}
	return d.Code
}

// Catalog 积分动作目录
type Catalog struct {
	actions map[string]ActionDefinition
}

func NewCatalog(defs ...ActionDefinition) *Catalog {
	c := &Catalog{actions: make(map[string]ActionDefinition, len(defs))}
	for _, d := range defs {
		c.actions[d.Code] = d
	}
	return c
}

// DefaultCatalog 平台内置的积分规则
func DefaultCatalog() *Catalog {
	return NewCatalog(
		ActionDefinition{Code: ActionWelcome, Points: 150, Policy: PolicyOneTime, Description: "注册奖励"},
		ActionDefinition{Code: ActionCompleteProfile, Points: 50, Policy: PolicyOneTime, Description: "完善个人资料"},
		ActionDefinition{Code: ActionScheduleConsultation, Points: 150, Policy: PolicyOneTime, Description: "预约咨询"},
		ActionDefinition{Code: ActionReferFriend, Points: 300, Policy: PolicyUnlimited, Description: "邀请好友"},
		ActionDefinition{Code: ActionCompleteVideo, Points: 50, Policy: PolicyOneTimePerKey, Description: "看完视频"},
		ActionDefinition{Code: ActionCompleteConsultation, Points: 200, Policy: PolicyUnlimited, ProfessionalGranted: true, Description: "完成咨询"},
		ActionDefinition{Code: ActionOrderPurchase, Policy: PolicyUnlimited, Variable: true, Description: "购物返积分"},
	)
}

func (c *Catalog) Lookup(code string) (ActionDefinition, bool) {
	d, ok := c.actions[code]
	return d, ok
}

// WelcomePoints 注册奖励积分，首单判断依赖该值
func (c *Catalog) WelcomePoints() int64 {
	return c.actions[ActionWelcome].Points
}

// Resolve 解析 "code" 或 "code:key" 形式的动作，返回定义与领取键
func (c *Catalog) Resolve(action string) (ActionDefinition, string, error) {
	code, key, hasKey := strings.Cut(strings.TrimSpace(action), ":")
	def, ok := c.actions[code]
	if !ok {
		return ActionDefinition{}, "", fmt.Errorf("%w: %s", ErrUnknownAction, code)
	}

	key = strings.TrimSpace(key)
	switch def.Policy {
	case PolicyOneTimePerKey:
		if key == "" {
			return ActionDefinition{}, "", fmt.Errorf("%w: %s 需要指定 key", ErrInvalidAction, code)
		}
	default:
		if hasKey {
			return ActionDefinition{}, "", fmt.Errorf("%w: %s 不接受 key", ErrInvalidAction, code)
		}
	}
	return def, def.ClaimKey(key), nil
}

// All 返回全部定义，顺序不保证
func (c *Catalog) All() []ActionDefinition {
	defs := make([]ActionDefinition, 0, len(c.actions))
	for _, d := range c.actions {
		defs = append(defs, d)
	}
	return defs
}
