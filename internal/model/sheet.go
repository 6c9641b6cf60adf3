package model

// SheetID 后端数据表标识（固定的五类业务表）
type SheetID string

const (
	SheetPurchaseOrders SheetID = "PurchaseOrders" // 采购订单
	SheetProduction     SheetID = "Production"     // 生产记录
	SheetFinishedGoods  SheetID = "FinishedGoods"  // 成品库存
	SheetIssues         SheetID = "Issues"         // 异常记录
	SheetSecondarySales SheetID = "SecondarySales" // 次品销售
)

// SheetType 表类型（用于选择必填字段规则）
type SheetType string

const (
	SheetTypeUnknown        SheetType = "unknown"
	SheetTypePurchaseOrders SheetType = "purchase_orders"
	SheetTypeProduction     SheetType = "production"
	SheetTypeFinishedGoods  SheetType = "finished_goods"
	SheetTypeIssues         SheetType = "issues"
	SheetTypeSecondarySales SheetType = "secondary_sales"
)

// sheetTypes SheetID 与 SheetType 的一一对应关系
var sheetTypes = map[SheetID]SheetType{
	SheetPurchaseOrders: SheetTypePurchaseOrders,
	SheetProduction:     SheetTypeProduction,
	SheetFinishedGoods:  SheetTypeFinishedGoods,
	SheetIssues:         SheetTypeIssues,
	SheetSecondarySales: SheetTypeSecondarySales,
}

// AllSheets 返回全部已知表标识（固定顺序）
func AllSheets() []SheetID {
	return []SheetID{
		SheetPurchaseOrders,
		SheetProduction,
		SheetFinishedGoods,
		SheetIssues,
		SheetSecondarySales,
	}
}

// TypeOf 根据表标识返回表类型
func TypeOf(id SheetID) SheetType {
	if t, ok := sheetTypes[id]; ok {
		return t
	}
	return SheetTypeUnknown
}

// ParseSheetID 解析表标识字符串
func ParseSheetID(s string) (SheetID, bool) {
	id := SheetID(s)
	_, ok := sheetTypes[id]
	return id, ok
}
