package client

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// 服务端所有数值字段都是字符串，空串按 0 处理

func parseDecimal(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "field %s=%q", field, s)
	}
	return d, nil
}

func parseInt(field, s string) (int64, error) {
	d, err := parseDecimal(field, s)
	if err != nil {
		return 0, err
	}
	return d.IntPart(), nil
}

func parseFloat(field, s string) (float64, error) {
	d, err := parseDecimal(field, s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// numParser 收集第一个解析错误，避免每个字段都写 if err
type numParser struct {
	err error
}

func (p *numParser) int(field, s string) int64 {
	v, err := parseInt(field, s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *numParser) float(field, s string) float64 {
	v, err := parseFloat(field, s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *numParser) decimal(field, s string) decimal.Decimal {
	v, err := parseDecimal(field, s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}
