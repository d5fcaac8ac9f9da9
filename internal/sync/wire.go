package sync

// Wire records sent to and received from the cloud backend. Each record
// carries the client-generated local id (the cloud joins by it, never by a
// remote-assigned key), the domain fields, updatedAt, and a deleted marker
// that is present only when true — the cloud treats omission as "not
// deleted", and an explicit false would break its patch semantics.

// AccountRecord is the wire form of an account.
type AccountRecord struct {
	LocalID   string  `json:"localId"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Balance   float64 `json:"balance"`
	Icon      string  `json:"icon"`
	UpdatedAt string  `json:"updatedAt"`
	Deleted   bool    `json:"deleted,omitempty"`
}

// CategoryRecord is the wire form of a category.
type CategoryRecord struct {
	LocalID   string `json:"localId"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Type      string `json:"type"`
	Color     string `json:"color"`
	UpdatedAt string `json:"updatedAt"`
	Deleted   bool   `json:"deleted,omitempty"`
}

// TransactionRecord is the wire form of a transaction. Category and account
// references travel as local ids.
type TransactionRecord struct {
	LocalID         string  `json:"localId"`
	Title           string  `json:"title"`
	Amount          float64 `json:"amount"`
	Note            string  `json:"note"`
	Date            string  `json:"date"`
	CategoryLocalID string  `json:"categoryLocalId"`
	AccountLocalID  string  `json:"accountLocalId"`
	UpdatedAt       string  `json:"updatedAt"`
	Deleted         bool    `json:"deleted,omitempty"`
}

// BudgetRecord is the wire form of a per-category budget.
type BudgetRecord struct {
	LocalID         string  `json:"localId"`
	CategoryLocalID string  `json:"categoryLocalId"`
	LimitAmount     float64 `json:"limitAmount"`
	Month           string  `json:"month"`
	UpdatedAt       string  `json:"updatedAt"`
	Deleted         bool    `json:"deleted,omitempty"`
}

// GoalRecord is the wire form of a goal.
type GoalRecord struct {
	LocalID   string  `json:"localId"`
	Name      string  `json:"name"`
	Icon      string  `json:"icon"`
	Target    float64 `json:"target"`
	Saved     float64 `json:"saved"`
	Color     string  `json:"color"`
	UpdatedAt string  `json:"updatedAt"`
	Deleted   bool    `json:"deleted,omitempty"`
}

// MonthlyBudgetRecord is the wire form of an overall monthly budget.
type MonthlyBudgetRecord struct {
	LocalID   string  `json:"localId"`
	Month     string  `json:"month"`
	Budget    float64 `json:"budget"`
	UpdatedAt string  `json:"updatedAt"`
	Deleted   bool    `json:"deleted,omitempty"`
}

// SettingRecord is the wire form of one settings key/value pair. Settings
// have no delete concept, only overwrite.
type SettingRecord struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updatedAt"`
}

// PreferencesRecord is the wire form of the single-row user preferences.
type PreferencesRecord struct {
	LocalID              string  `json:"localId"`
	Email                string  `json:"email"`
	Currency             string  `json:"currency"`
	OverallBalance       float64 `json:"overallBalance"`
	TrackIncome          bool    `json:"trackIncome"`
	NotificationsEnabled bool    `json:"notificationsEnabled"`
	DailyReminder        bool    `json:"dailyReminder"`
	WeeklyReport         bool    `json:"weeklyReport"`
	SyncEnabled          bool    `json:"syncEnabled"`
	HasOnboarded         string  `json:"hasOnboarded"`
	UpdatedAt            string  `json:"updatedAt"`
}

// Batch is the single request body for a push: every dirty row across all
// syncable tables, grouped by entity type.
type Batch struct {
	UserID          string                `json:"userId"`
	Accounts        []AccountRecord       `json:"accounts"`
	Categories      []CategoryRecord      `json:"categories"`
	Transactions    []TransactionRecord   `json:"transactions"`
	Budgets         []BudgetRecord        `json:"budgets"`
	Goals           []GoalRecord          `json:"goals"`
	Settings        []SettingRecord       `json:"settings"`
	UserPreferences *PreferencesRecord    `json:"userPreferences,omitempty"`
	MonthlyBudgets  []MonthlyBudgetRecord `json:"monthlyBudgets"`
}

// Size returns the total number of records in the batch.
func (b *Batch) Size() int {
	n := len(b.Accounts) + len(b.Categories) + len(b.Transactions) +
		len(b.Budgets) + len(b.Goals) + len(b.Settings) + len(b.MonthlyBudgets)
	if b.UserPreferences != nil {
		n++
	}
	return n
}

// Snapshot is the cloud's complete copy of the user's data, returned by
// every pull. There are no incremental or cursor semantics.
type Snapshot struct {
	Accounts        []AccountRecord       `json:"accounts"`
	Categories      []CategoryRecord      `json:"categories"`
	Transactions    []TransactionRecord   `json:"transactions"`
	Budgets         []BudgetRecord        `json:"budgets"`
	Goals           []GoalRecord          `json:"goals"`
	Settings        []SettingRecord       `json:"settings"`
	UserPreferences *PreferencesRecord    `json:"userPreferences,omitempty"`
	MonthlyBudgets  []MonthlyBudgetRecord `json:"monthlyBudgets"`
}

// Size returns the total number of records in the snapshot.
func (s *Snapshot) Size() int {
	n := len(s.Accounts) + len(s.Categories) + len(s.Transactions) +
		len(s.Budgets) + len(s.Goals) + len(s.Settings) + len(s.MonthlyBudgets)
	if s.UserPreferences != nil {
		n++
	}
	return n
}
