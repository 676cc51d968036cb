package classify

// Business categories written to the target table.
const (
	TypeInternalSettlement = "内部结算"
	TypeSalary             = "薪酬支付"
	TypeRevenueShare       = "分成到账"
	TypeSalesReceipt       = "销售回款"
	TypeBankFee            = "银行费用"
	TypeGoodsPayment       = "货款支付"
	TypeFreight            = "货代支付"
	TypeInsurance          = "保险支付"
	TypeCommission         = "提成支付"
	TypeTax                = "税费支付"
	TypeReimbursement      = "报销支付"
	TypeRent               = "房租费用"
	TypeLicense            = "证照费用"
	TypeBookkeeping        = "财务记账"
	TypeSundry             = "杂费支付"
	TypeTaxRefund          = "退税到账"
	TypeServiceReceipt     = "服务回款"
	TypeOtherExpense       = "其他支出"
	TypeOtherIncome        = "其他收入"
)
