package types

// 以下为 KIS REST 接口的原始报文结构，数值字段全部是字符串

// Envelope 所有交易/查询接口共有的结果字段
type Envelope struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`
}

// Succeeded rt_cd == "0"
func (e Envelope) Succeeded() bool {
	return e.RtCd == "0"
}

// TokenRequest POST /oauth2/tokenP
type TokenRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
}

// TokenResponse tokenP 响应
type TokenResponse struct {
	AccessToken        string `json:"access_token"`
	AccessTokenExpired string `json:"access_token_token_expired"`
	TokenType          string `json:"token_type"`
	ExpiresIn          int64  `json:"expires_in"`
}

// ApprovalRequest POST /oauth2/Approval（实时行情连接密钥）
type ApprovalRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	SecretKey string `json:"secretkey"`
}

// ApprovalResponse Approval 响应
type ApprovalResponse struct {
	ApprovalKey string `json:"approval_key"`
}

// HashKeyResponse POST /uapi/hashkey 响应
type HashKeyResponse struct {
	Hash string `json:"HASH"`
}

// QuoteOutput inquire-price 的 output
type QuoteOutput struct {
	Price      string `json:"stck_prpr"`
	Volume     string `json:"acml_vol"`
	ChangeRate string `json:"prdy_ctrt"`
}

// QuoteResponse inquire-price 响应
type QuoteResponse struct {
	Envelope
	Output QuoteOutput `json:"output"`
}

// OrderCashRequest order-cash 请求体
type OrderCashRequest struct {
	CANO       string `json:"CANO"`
	AcntPrdtCd string `json:"ACNT_PRDT_CD"`
	Pdno       string `json:"PDNO"`
	OrdDvsn    string `json:"ORD_DVSN"`
	OrdQty     string `json:"ORD_QTY"`
	OrdUnpr    string `json:"ORD_UNPR"`
}

// OrderOutput 下单/撤单响应 output
type OrderOutput struct {
	BranchNo string `json:"KRX_FWDG_ORD_ORGNO"`
	OrderNo  string `json:"ODNO"`
	OrderTmd string `json:"ORD_TMD"`
}

// OrderResponse 下单/撤单响应
type OrderResponse struct {
	Envelope
	Output OrderOutput `json:"output"`
}

// CancelRequest order-rvsecncl 请求体
type CancelRequest struct {
	CANO            string `json:"CANO"`
	AcntPrdtCd      string `json:"ACNT_PRDT_CD"`
	KrxFwdgOrdOrgno string `json:"KRX_FWDG_ORD_ORGNO"`
	OrgnOdno        string `json:"ORGN_ODNO"`
	OrdDvsn         string `json:"ORD_DVSN"`
	RvseCnclDvsnCd  string `json:"RVSE_CNCL_DVSN_CD"`
	OrdQty          string `json:"ORD_QTY"`
	OrdUnpr         string `json:"ORD_UNPR"`
	QtyAllOrdYn     string `json:"QTY_ALL_ORD_YN"`
}

// BalanceItem inquire-balance output1 元素
type BalanceItem struct {
	Pdno        string `json:"pdno"`
	PrdtName    string `json:"prdt_name"`
	HldgQty     string `json:"hldg_qty"`
	PchsAvgPric string `json:"pchs_avg_pric"`
	PchsAmt     string `json:"pchs_amt"`
	EvluAmt     string `json:"evlu_amt"`
	EvluPflsAmt string `json:"evlu_pfls_amt"`
	EvluPflsRt  string `json:"evlu_pfls_rt"`
}

// BalanceSummary inquire-balance output2 元素
type BalanceSummary struct {
	DncaTotAmt string `json:"dnca_tot_amt"`
	TotEvluAmt string `json:"tot_evlu_amt"`
}

// BalanceResponse inquire-balance 响应
type BalanceResponse struct {
	Envelope
	CtxAreaFK100 string           `json:"ctx_area_fk100"`
	CtxAreaNK100 string           `json:"ctx_area_nk100"`
	Output1      []BalanceItem    `json:"output1"`
	Output2      []BalanceSummary `json:"output2"`
}

// OpenOrderItem inquire-psbl-rvsecncl output 元素
type OpenOrderItem struct {
	OrdGnoBrno   string `json:"ord_gno_brno"`
	Odno         string `json:"odno"`
	Pdno         string `json:"pdno"`
	PrdtName     string `json:"prdt_name"`
	SllBuyDvsnCd string `json:"sll_buy_dvsn_cd"`
	OrdQty       string `json:"ord_qty"`
	OrdUnpr      string `json:"ord_unpr"`
	PsblQty      string `json:"psbl_qty"`
}

// OpenOrdersResponse inquire-psbl-rvsecncl 响应
type OpenOrdersResponse struct {
	Envelope
	CtxAreaFK100 string          `json:"ctx_area_fk100"`
	CtxAreaNK100 string          `json:"ctx_area_nk100"`
	Output       []OpenOrderItem `json:"output"`
}

// OverseasQuoteOutput 海外现价 output
type OverseasQuoteOutput struct {
	Last string `json:"last"`
	Tvol string `json:"tvol"`
	Rate string `json:"rate"`
}

// OverseasQuoteResponse 海外现价响应
type OverseasQuoteResponse struct {
	Envelope
	Output OverseasQuoteOutput `json:"output"`
}

// OverseasOrderRequest 海外下单请求体
type OverseasOrderRequest struct {
	CANO         string `json:"CANO"`
	AcntPrdtCd   string `json:"ACNT_PRDT_CD"`
	OvrsExcgCd   string `json:"OVRS_EXCG_CD"`
	Pdno         string `json:"PDNO"`
	OrdQty       string `json:"ORD_QTY"`
	OvrsOrdUnpr  string `json:"OVRS_ORD_UNPR"`
	OrdSvrDvsnCd string `json:"ORD_SVR_DVSN_CD"`
	OrdDvsn      string `json:"ORD_DVSN"`
}

// OverseasBalanceItem 海外余额 output1 元素
type OverseasBalanceItem struct {
	OvrsPdno        string `json:"ovrs_pdno"`
	OvrsItemName    string `json:"ovrs_item_name"`
	OvrsCblcQty     string `json:"ovrs_cblc_qty"`
	PchsAvgPric     string `json:"pchs_avg_pric"`
	FrcrPchsAmt1    string `json:"frcr_pchs_amt1"`
	OvrsStckEvluAmt string `json:"ovrs_stck_evlu_amt"`
	FrcrEvluPflsAmt string `json:"frcr_evlu_pfls_amt"`
	EvluPflsRt      string `json:"evlu_pfls_rt"`
	OvrsExcgCd      string `json:"ovrs_excg_cd"`
}

// OverseasBalanceResponse 海外余额响应
type OverseasBalanceResponse struct {
	Envelope
	CtxAreaFK200 string                `json:"ctx_area_fk200"`
	CtxAreaNK200 string                `json:"ctx_area_nk200"`
	Output1      []OverseasBalanceItem `json:"output1"`
}
