package outline

type sectionDef struct {
	id       string
	title    string
	goal     string
	keywords []string
}

// sectionDefs is the fixed outline. Order matters: ties go to the earlier
// section and unmatched facts go to the first one.
var sectionDefs = []sectionDef{
	{
		id:    "overview",
		title: "Company Overview",
		goal:  "Introduce who the company is, where it operates and how long it has existed",
		keywords: []string{
			"company", "name", "overview", "about", "introduction", "founded", "established", "headquarters",
			"address", "location", "history", "profile", "description", "website", "type",
			"公司", "名称", "简介", "成立", "总部", "地址", "概况", "历史", "官网",
		},
	},
	{
		id:    "products",
		title: "Products & Services",
		goal:  "Show what the company sells and the main product lines",
		keywords: []string{
			"product", "service", "solution", "offering", "portfolio", "brand", "model", "sku", "catalog",
			"category", "price",
			"产品", "服务", "解决方案", "品牌", "型号", "价格",
		},
	},
	{
		id:    "capabilities",
		title: "Capabilities",
		goal:  "Explain production capacity, technology and research strength",
		keywords: []string{
			"capability", "capacity", "production", "manufacturing", "factory", "equipment", "technology",
			"rd", "research", "patent", "process", "output", "facility", "area", "line", "lead", "moq",
			"产能", "生产", "制造", "工厂", "设备", "技术", "研发", "专利", "工艺", "面积",
		},
	},
	{
		id:    "quality",
		title: "Quality & Certifications",
		goal:  "Evidence quality systems, certificates and awards",
		keywords: []string{
			"quality", "certification", "certificate", "iso", "standard", "compliance", "audit", "award",
			"qc", "inspection", "test",
			"认证", "质量", "证书", "标准", "合规", "奖项", "检测",
		},
	},
	{
		id:    "customers",
		title: "Customers & Markets",
		goal:  "Show who buys from the company and where it sells",
		keywords: []string{
			"customer", "client", "market", "export", "region", "country", "partner", "distribution",
			"sales", "revenue", "turnover", "case",
			"客户", "市场", "出口", "地区", "合作", "销售", "营收", "案例",
		},
	},
	{
		id:    "team",
		title: "Team & Leadership",
		goal:  "Introduce the people and leadership behind the company",
		keywords: []string{
			"team", "employee", "staff", "leadership", "founder", "ceo", "management", "people",
			"headcount", "engineer", "contact",
			"团队", "员工", "人员", "管理", "创始人", "领导", "联系人",
		},
	},
	{
		id:    "highlights",
		title: "Highlights",
		goal:  "Close with the strongest differentiators",
		keywords: []string{
			"highlight", "advantage", "strength", "achievement", "milestone", "unique", "differentiator",
			"why", "mission", "vision",
			"优势", "亮点", "成就", "里程碑", "特色", "使命", "愿景",
		},
	},
}

// placeholders are values that mean "no data".
var placeholders = map[string]bool{
	"n/a": true, "na": true, "none": true, "null": true, "nil": true, "-": true, "--": true, "—": true,
	"unknown": true, "tbd": true, "not applicable": true, "not available": true, "no": true,
	"无": true, "暂无": true, "没有": true, "不详": true, "未知": true, "空": true, "否": true, "待定": true,
}

// countWords mark fields whose zero value means "nothing to report".
var countWords = []string{
	"count", "number", "num", "employees", "staff", "headcount", "qty", "quantity", "total", "years",
	"patents", "lines", "customers", "clients", "countries",
	"数量", "人数", "个数", "年限",
}

// negativeWords mark fields never put in front of an audience.
var negativeWords = []string{
	"risk", "complaint", "lawsuit", "litigation", "penalty", "penalties", "violation", "negative",
	"weakness", "weaknesses", "issue", "issues", "problem", "problems", "debt", "loss", "losses",
	"dispute", "defect", "recall", "bankruptcy",
	"风险", "投诉", "诉讼", "处罚", "违规", "负面", "劣势", "问题", "纠纷", "亏损", "缺陷",
}

var imageWords = []string{"logo", "image", "images", "photo", "photos", "picture", "pictures", "banner", "图片", "照片", "标志"}

// titlePatterns are tried in priority order against the last path segment.
var titlePatterns = []string{"english name", "company name", "公司英文名", "公司名称", "公司名", "name"}
