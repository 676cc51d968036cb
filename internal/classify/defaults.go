package classify

// DefaultRuleSet returns the built-in keyword rules. It has no counterparty
// overrides and no foreign USD rule; those only come from configuration.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		IncomeBySource: map[string]string{},
		LocalPrefixes:  []string{"QD_", "BJ_", "HK_"},
		Expense: []Rule{
			{Keywords: []string{"银行费用", "手续费", "汇费", "年费", "管理费"}, Type: TypeBankFee},
			{Keywords: []string{"货款", "采购", "支付货款", "网上支付"}, Type: TypeGoodsPayment},
			{Keywords: []string{"货代", "运费", "物流", "运输"}, Type: TypeFreight},
			{Keywords: []string{"保险"}, Type: TypeInsurance},
			{Keywords: []string{"提成"}, Type: TypeCommission},
			{Keywords: []string{"税", "缴税", "扣税", "实时缴税"}, Type: TypeTax},
			{Keywords: []string{"工资", "薪酬", "代发"}, Type: TypeSalary},
			{Keywords: []string{"报销"}, Type: TypeReimbursement},
			{Keywords: []string{"房租", "租金"}, Type: TypeRent},
			{Keywords: []string{"证照"}, Type: TypeLicense},
			{Keywords: []string{"财务记账"}, Type: TypeBookkeeping},
			{Keywords: []string{"杂费", "收费"}, Type: TypeSundry},
		},
		Income: []Rule{
			{Keywords: []string{"退税", "退税款", "出口退税"}, Type: TypeTaxRefund},
			{Keywords: []string{"货款", "回款", "订单", "销售", "国外汇款", "大额支付", "转账收入"}, Type: TypeSalesReceipt},
			{Keywords: []string{"服务费", "服务收入"}, Type: TypeServiceReceipt},
			{Keywords: []string{"分成", "代发划转", "代发收费"}, Type: TypeRevenueShare},
		},
	}
}
