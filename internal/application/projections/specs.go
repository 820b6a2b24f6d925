package projections

import (
	"time"

	"otterpoint/internal/application/listutil"
	domainAdmin "otterpoint/internal/domain/admin"
	domainAudit "otterpoint/internal/domain/audit"
	domainItem "otterpoint/internal/domain/item"
	"otterpoint/internal/domain/labels"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/pointlog"
	"otterpoint/internal/domain/pointtype"
	"otterpoint/internal/domain/timestamp"
)

// Status choices of category-enum and audit lists; ALL is the default.
var (
	CategoryStatuses = []string{listutil.StatusAll, pointtype.CategoryAdd, pointtype.CategoryConsume}
	OutcomeStatuses  = []string{listutil.StatusAll, string(domainAudit.OutcomeOK), string(domainAudit.OutcomeFailed)}
)

func some(n int64) (int64, bool) { return n, true }

// MemberSpec is the admin member list.
var MemberSpec = listutil.Spec[domainMember.Member]{
	Title:    "會員列表",
	Statuses: listutil.ActiveStatuses,
	Status: func(m domainMember.Member, choice string) bool {
		return listutil.MatchActive(m.Active, choice)
	},
	Timestamp: func(m domainMember.Member) (time.Time, bool) { return m.CreatedAt.Time() },
	DateOnly:  true,
	Keywords: func(m domainMember.Member) []string {
		return []string{m.MemberID, m.FullName(), m.Email, m.PhoneNumber, m.Region}
	},
	Columns: []listutil.Column[domainMember.Member]{
		listutil.TextColumn("id", "會員編號", func(m domainMember.Member) string { return m.MemberID }),
		listutil.TextColumn("name", "姓名", domainMember.Member.FullName),
		listutil.TextColumn("gender", "性別", func(m domainMember.Member) string { return labels.Gender(m.Gender) }),
		listutil.TextColumn("phone", "手機號碼", func(m domainMember.Member) string { return m.PhoneNumber }),
		listutil.TextColumn("level", "會員等級", func(m domainMember.Member) string { return labels.Level(m.Level) }),
		listutil.TextColumn("email", "電子信箱", func(m domainMember.Member) string { return m.Email }),
		listutil.TextColumn("region", "居住地區", func(m domainMember.Member) string { return m.Region }),
		listutil.NumberColumn("points", "剩餘點數", func(m domainMember.Member) (int64, bool) {
			if m.RemainPoint == nil {
				return 0, false
			}
			return *m.RemainPoint, true
		}),
		listutil.TextColumn("active", "啟用", func(m domainMember.Member) string { return labels.Active(m.Active) }),
		listutil.StampColumn("created", "建立日期", func(m domainMember.Member) timestamp.Stamp { return m.CreatedAt }, timestamp.Stamp.Date),
	},
}

func matchCategory(l pointlog.Log, choice string) bool {
	return l.Category == choice
}

func logTime(l pointlog.Log) (time.Time, bool) { return l.CreatedAt.Time() }

// log columns shared by the three ledger views
var (
	logIDColumn     = listutil.TextColumn("id", "紀錄編號", func(l pointlog.Log) string { return l.LogID })
	logTypeColumn   = listutil.TextColumn("type", "點數類型", func(l pointlog.Log) string { return l.TypeName })
	logCatColumn    = listutil.TextColumn("category", "類別", func(l pointlog.Log) string { return labels.Category(l.Category) })
	logRemainColumn = listutil.NumberColumn("remain", "剩餘點數", pointlog.Log.Remaining)
	logNoteColumn   = listutil.TextColumn("note", "備註", func(l pointlog.Log) string { return l.Note })
	logAdminColumn  = listutil.TextColumn("admin", "經辦人", func(l pointlog.Log) string { return l.AdminName })
	logUnitColumn   = listutil.TextColumn("unit", "單位", func(l pointlog.Log) string { return l.Unit })
	logCreated      = listutil.StampColumn("created", "建立時間", func(l pointlog.Log) timestamp.Stamp { return l.CreatedAt }, timestamp.Stamp.Minute)
	logExpired      = listutil.StampColumn("expired", "到期時間", func(l pointlog.Log) timestamp.Stamp {
		if !l.IsAdd() {
			return ""
		}
		return l.ExpiredAt
	}, timestamp.Stamp.Minute)
)

// PointLogSpec is the global ledger.
var PointLogSpec = listutil.Spec[pointlog.Log]{
	Title:     "點數紀錄",
	Statuses:  CategoryStatuses,
	Status:    matchCategory,
	Timestamp: logTime,
	Keywords: func(l pointlog.Log) []string {
		return []string{l.LogID, l.MemberID, l.MemberName, l.TypeName, l.AdminName, l.Unit, l.Note}
	},
	Columns: []listutil.Column[pointlog.Log]{
		logIDColumn,
		listutil.TextColumn("member", "會員編號", func(l pointlog.Log) string { return l.MemberID }),
		listutil.TextColumn("member_name", "會員姓名", func(l pointlog.Log) string { return l.MemberName }),
		logTypeColumn,
		logCatColumn,
		listutil.NumberColumn("points", "點數", func(l pointlog.Log) (int64, bool) { return some(l.OriginalPoints) }),
		logRemainColumn,
		listutil.TextColumn("sources", "扣抵來源", pointlog.Log.Sources),
		logNoteColumn,
		logAdminColumn,
		logUnitColumn,
		logCreated,
		logExpired,
	},
}

// MemberPointLogSpec is one member's ledger on the admin point page.
var MemberPointLogSpec = listutil.Spec[pointlog.Log]{
	Title:     "會員點數紀錄",
	Statuses:  CategoryStatuses,
	Status:    matchCategory,
	Timestamp: logTime,
	Keywords: func(l pointlog.Log) []string {
		return []string{l.LogID, l.TypeName, l.AdminName, l.Note, l.Unit, l.MemberName}
	},
	Columns: []listutil.Column[pointlog.Log]{
		logIDColumn,
		logTypeColumn,
		logCatColumn,
		listutil.NumberColumn("granted", "派發點數", pointlog.Log.Granted),
		listutil.NumberColumn("deducted", "扣除點數", pointlog.Log.Deducted),
		logRemainColumn,
		listutil.TextColumn("sources", "扣抵來源", pointlog.Log.Sources),
		logNoteColumn,
		logAdminColumn,
		logUnitColumn,
		logCreated,
		logExpired,
	},
}

// SelfPointLogSpec is the member's own history.
var SelfPointLogSpec = listutil.Spec[pointlog.Log]{
	Title:     "我的點數紀錄",
	Statuses:  CategoryStatuses,
	Status:    matchCategory,
	Timestamp: logTime,
	Keywords: func(l pointlog.Log) []string {
		return []string{l.LogID, l.TypeName, l.Note}
	},
	Columns: []listutil.Column[pointlog.Log]{
		logIDColumn,
		logTypeColumn,
		logCatColumn,
		listutil.NumberColumn("points", "點數", func(l pointlog.Log) (int64, bool) { return some(l.OriginalPoints) }),
		logRemainColumn,
		logNoteColumn,
		logCreated,
		logExpired,
	},
}

// PointTypeSpec is the point type list.
var PointTypeSpec = listutil.Spec[pointtype.PointType]{
	Title:    "點數類型",
	Statuses: listutil.ActiveStatuses,
	Status: func(p pointtype.PointType, choice string) bool {
		return listutil.MatchActive(p.Active, choice)
	},
	Keywords: func(p pointtype.PointType) []string {
		return []string{p.TypeID, p.Name, p.Description}
	},
	Columns: []listutil.Column[pointtype.PointType]{
		listutil.TextColumn("id", "類型編號", func(p pointtype.PointType) string { return p.TypeID }),
		listutil.TextColumn("name", "名稱", func(p pointtype.PointType) string { return p.Name }),
		listutil.TextColumn("category", "類別", func(p pointtype.PointType) string { return labels.Category(p.Category) }),
		listutil.NumberColumn("default", "預設點數", func(p pointtype.PointType) (int64, bool) { return some(p.DefaultValue) }),
		listutil.TextColumn("description", "說明", func(p pointtype.PointType) string { return p.Description }),
		listutil.TextColumn("active", "啟用", func(p pointtype.PointType) string { return labels.Active(p.Active) }),
	},
}

// AdminSpec is the admin account list.
var AdminSpec = listutil.Spec[domainAdmin.Admin]{
	Title:    "管理員列表",
	Statuses: listutil.ActiveStatuses,
	Status: func(a domainAdmin.Admin, choice string) bool {
		return listutil.MatchActive(a.Active, choice)
	},
	Keywords: func(a domainAdmin.Admin) []string {
		return []string{a.AdminID, a.Username, a.AdminName, a.Unit}
	},
	Columns: []listutil.Column[domainAdmin.Admin]{
		listutil.TextColumn("id", "管理員編號", func(a domainAdmin.Admin) string { return a.AdminID }),
		listutil.TextColumn("username", "帳號", func(a domainAdmin.Admin) string { return a.Username }),
		listutil.TextColumn("name", "名稱", func(a domainAdmin.Admin) string { return a.AdminName }),
		listutil.TextColumn("unit", "單位", func(a domainAdmin.Admin) string { return a.Unit }),
		listutil.TextColumn("active", "啟用", func(a domainAdmin.Admin) string { return labels.Active(a.Active) }),
	},
}

// ItemSpec is the admin item list.
var ItemSpec = listutil.Spec[domainItem.Item]{
	Title:    "商品列表",
	Statuses: listutil.ActiveStatuses,
	Status: func(i domainItem.Item, choice string) bool {
		return listutil.MatchActive(i.Active, choice)
	},
	Keywords: func(i domainItem.Item) []string {
		return []string{i.ItemID, i.Name, i.Description}
	},
	Columns: []listutil.Column[domainItem.Item]{
		listutil.TextColumn("id", "商品編號", func(i domainItem.Item) string { return i.ItemID }),
		listutil.TextColumn("name", "名稱", func(i domainItem.Item) string { return i.Name }),
		listutil.NumberColumn("points", "兌換點數", func(i domainItem.Item) (int64, bool) { return some(i.Points) }),
		listutil.TextColumn("description", "說明", func(i domainItem.Item) string { return i.Description }),
		listutil.TextColumn("active", "上架", func(i domainItem.Item) string { return labels.Active(i.Active) }),
	},
}

// AuditSpec is the portal audit trail.
var AuditSpec = listutil.Spec[domainAudit.Event]{
	Title:    "操作紀錄",
	Statuses: OutcomeStatuses,
	Status: func(e domainAudit.Event, choice string) bool {
		return string(e.Outcome) == choice
	},
	Timestamp: func(e domainAudit.Event) (time.Time, bool) { return e.Timestamp, !e.Timestamp.IsZero() },
	Keywords: func(e domainAudit.Event) []string {
		return []string{e.ActorID, e.ActorName, string(e.Action), e.ResourceType, e.ResourceID, e.Message}
	},
	Columns: []listutil.Column[domainAudit.Event]{
		{
			Key:   "time",
			Label: "時間",
			Value: func(e domainAudit.Event) string { return e.Timestamp.Local().Format(timestamp.MinuteLayout) },
			Compare: func(a, b domainAudit.Event) int {
				return a.Timestamp.Compare(b.Timestamp)
			},
		},
		listutil.TextColumn("class", "身分", func(e domainAudit.Event) string { return e.ActorClass }),
		listutil.TextColumn("actor", "操作者", func(e domainAudit.Event) string { return actorLabel(e) }),
		listutil.TextColumn("action", "動作", func(e domainAudit.Event) string { return string(e.Action) }),
		listutil.TextColumn("resource", "對象", func(e domainAudit.Event) string { return resourceLabel(e) }),
		listutil.TextColumn("outcome", "結果", func(e domainAudit.Event) string { return labels.Outcome(string(e.Outcome)) }),
		listutil.TextColumn("message", "訊息", func(e domainAudit.Event) string { return e.Message }),
		listutil.TextColumn("ip", "來源 IP", func(e domainAudit.Event) string { return e.IPAddress }),
	},
}

func actorLabel(e domainAudit.Event) string {
	switch {
	case e.ActorName != "" && e.ActorID != "":
		return e.ActorName + " (" + e.ActorID + ")"
	case e.ActorName != "":
		return e.ActorName
	}
	return e.ActorID
}

func resourceLabel(e domainAudit.Event) string {
	if e.ResourceType == "" {
		return ""
	}
	if e.ResourceID == "" {
		return e.ResourceType
	}
	return e.ResourceType + " " + e.ResourceID
}
