package types

import "strings"

// Cursor 连续查询游标（CTX_AREA_FK / CTX_AREA_NK），客户端不解释其内容
type Cursor struct {
	FK string
	NK string
}

// IsEmpty 空游标表示第一页；服务端会用空格补齐，全空白也算空
func (c Cursor) IsEmpty() bool {
	return strings.TrimSpace(c.FK) == "" && strings.TrimSpace(c.NK) == ""
}

// tr_cont 取值：响应 F/M 表示还有下一页，D/E 表示最后一页；请求时 N 表示继续查询
const (
	TrContMore     = "M"
	TrContFirst    = "F"
	TrContLast     = "D"
	TrContEnd      = "E"
	TrContNextPage = "N"
)

// HasMore 根据响应头 tr_cont 判断是否还有数据
func HasMore(trCont string) bool {
	return trCont == TrContMore || trCont == TrContFirst
}
