package utils

import (
	"crypto/rand"
	"errors"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost bcrypt 成本，测试里可以调低
var PasswordCost = bcrypt.DefaultCost

var ErrEmptyPassword = errors.New("password is empty")

// HashPassword 加盐单向摘要；盐随每次调用生成并编码进结果
func HashPassword(pw string) (string, error) {
	if pw == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword 常量时间比较；任何失败都只返回 false
func CheckPassword(pw, hashed string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// dummyHash 用于“用户不存在”分支，保持与真实校验相近的耗时
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("estate-crm-timing-pad"), bcrypt.DefaultCost)

// BurnPasswordCheck 执行一次注定失败的比较
func BurnPasswordCheck(pw string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pw))
}

const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

// RandomPassword 生成一次性初始密码（带外下发）
func RandomPassword(n int) (string, error) {
	if n < 8 {
		n = 8
	}
	out := make([]byte, n)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[v.Int64()]
	}
	return string(out), nil
}
