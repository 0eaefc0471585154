package database

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm/logger"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	got := normalizeMySQLDSN("jdbc:mysql://db.local:3306/crm?useSSL=false&serverTimezone=UTC&characterEncoding=utf8", "crm", "s3cret")
	want := "crm:s3cret@tcp(db.local:3306)/crm?charset=utf8&loc=UTC&parseTime=true&tls=false"
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
	native := "crm:pw@tcp(127.0.0.1:3306)/crm?parseTime=true"
	if normalizeMySQLDSN(native, "x", "y") != native {
		t.Fatal("native DSN must be left untouched")
	}
}

func TestMaskDSN(t *testing.T) {
	if got := maskDSN("crm:s3cret@tcp(h:3306)/crm"); got != "crm:****@tcp(h:3306)/crm" {
		t.Fatalf("got %s", got)
	}
	if got := maskDSN("host=h user=crm"); got != "host=h user=crm" {
		t.Fatalf("got %s", got)
	}
}

func TestGormLevel(t *testing.T) {
	if gormLevel("info") != logger.Info || gormLevel("") != logger.Warn {
		t.Fatal("unexpected gorm log level mapping")
	}
}

func TestNewGormUnsupportedDriver(t *testing.T) {
	if _, err := NewGorm(context.Background(), Opts{Driver: "sqlite"}); !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("want ErrUnsupportedDriver, got %v", err)
	}
}
