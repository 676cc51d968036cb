package synonym

// Field names a semantic column of a bank export.
type Field string

const (
	FieldAccount             Field = "account"
	FieldAccountName         Field = "account_name"
	FieldDate                Field = "date"
	FieldDebit               Field = "debit"
	FieldCredit              Field = "credit"
	FieldAmount              Field = "amount"
	FieldCurrency            Field = "currency"
	FieldCounterparty        Field = "counterparty"
	FieldCounterpartyAccount Field = "counterparty_account"
	FieldSummary             Field = "summary"
	FieldMemo                Field = "memo"
	FieldReference           Field = "reference"
)

// Fields lists every semantic field in a stable order.
var Fields = []Field{
	FieldAccount, FieldAccountName, FieldDate, FieldDebit, FieldCredit, FieldAmount,
	FieldCurrency, FieldCounterparty, FieldCounterpartyAccount, FieldSummary,
	FieldMemo, FieldReference,
}

// FieldMap holds ordered candidate labels per semantic field.
type FieldMap map[Field][]string

// Candidates returns the labels for f, or nil.
func (m FieldMap) Candidates(f Field) []string {
	return m[f]
}

// Lookup resolves field f against row.
func (m FieldMap) Lookup(row Row, f Field) string {
	return Resolve(row, m[f])
}

// Merge returns a copy of m where every field present in override replaces
// the default list.
func (m FieldMap) Merge(override FieldMap) FieldMap {
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range override {
		if len(v) > 0 {
			out[k] = v
		}
	}
	return out
}

// DefaultFieldMap returns the built-in synonym lists. Debit and credit lists
// go from most to least specific so "借方发生额（支取）" wins over "借".
func DefaultFieldMap() FieldMap {
	return FieldMap{
		FieldAccount:     {"账号", "卡号", "查询账号", "account", "Account No", "Account Number"},
		FieldAccountName: {"账户名", "户名", "账户名称", "姓名", "Account Name", "Account Holder"},
		FieldDate:        {"交易日", "交易时间", "记账日期", "交易日期", "日期", "Date", "Value Date", "Transaction Date"},
		FieldDebit: {
			"借方发生额（支取）", "借方发生额", "借方金额", "支出", "支取", "支出金额", "借",
			"Debit", "Withdrawal", "DR",
		},
		FieldCredit: {
			"贷方发生额（收入）", "贷方发生额", "贷方金额", "收入金额", "收入", "贷",
			"Credit", "Deposit", "CR",
		},
		FieldAmount:              {"金额", "交易金额", "Amount", "Transaction Amount"},
		FieldCurrency:            {"币种", "货币", "currency", "ccy", "Currency"},
		FieldCounterparty:        {"对方户名", "对手方名称", "对方名称", "Counterparty", "Beneficiary", "Payee", "Description"},
		FieldCounterpartyAccount: {"对方账号", "对手方账号", "对方账户", "Counterparty Account"},
		FieldSummary:             {"摘要", "交易摘要", "用途", "备注", "Narration", "Particulars", "Remarks"},
		FieldMemo:                {"备注", "附言", "memo", "Memo", "Reference"},
		FieldReference:           {"交易流水号", "流水号", "交易编号", "Reference", "Ref No", "Reference No", "交易序号"},
	}
}
