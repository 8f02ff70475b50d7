package service

import (
	"errors"

	"healthloop/internal/model"
	"healthloop/internal/repository"
)

var (
	ErrInvalidAmount    = errors.New("积分数必须大于0")
	ErrAlreadyClaimed   = errors.New("该奖励已领取")
	ErrInvalidQuantity  = errors.New("商品数量必须大于等于1")
	ErrEmptyCart        = errors.New("购物车为空")
	ErrNotProfessional  = errors.New("只有专业人员可以发放咨询奖励")
	ErrEmailTaken       = errors.New("邮箱已注册")
	ErrInvalidRole      = errors.New("角色不合法")
	ErrInvalidDietType  = errors.New("饮食类型不合法")
	ErrDuplicateRequest = errors.New("请求号已被其他账户使用")
	ErrSystemBusy       = errors.New("系统繁忙，请稍后重试")

	ErrAccountNotFound = repository.ErrAccountNotFound
	ErrProductNotFound = repository.ErrProductNotFound
	ErrOrderNotFound   = repository.ErrOrderNotFound
	ErrUnknownAction   = model.ErrUnknownAction
	ErrInvalidAction   = model.ErrInvalidAction
)
