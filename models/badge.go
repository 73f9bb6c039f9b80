package models

// CounterSource says where a badge requirement's counter lives.
type CounterSource string

const (
	// SourceLocal counters are fields on the ProgressRecord itself.
	SourceLocal CounterSource = "local"
	// SourceExternal counters are derived from other collections
	// (comments, photos, messages, friendships) and cached on the record.
	SourceExternal CounterSource = "external"
)

// Requirement is the single threshold rule behind a badge: one named counter,
// local or external, compared with >=.
type Requirement struct {
	Source    CounterSource `json:"source"`
	Counter   string        `json:"counter"`
	Threshold int64         `json:"threshold"`
}

// BadgeDefinition: static catalog entry. Defined at build time, never mutated.
type BadgeDefinition struct {
	Code         string      `json:"code"` // e.g., "FIRST_STEPS", "WEEK_OF_FAITH"
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	IconURL      string      `json:"icon_url"`
	Rarity       string      `json:"rarity"` // common, rare, epic, legendary
	RewardPoints int64       `json:"reward_points"`
	Requirement  Requirement `json:"requirement"`
}

func local(counter string, threshold int64) Requirement {
	return Requirement{Source: SourceLocal, Counter: counter, Threshold: threshold}
}

func external(counter string, threshold int64) Requirement {
	return Requirement{Source: SourceExternal, Counter: counter, Threshold: threshold}
}

// DefaultBadgeCatalog is the production badge table, in award-priority order.
// The rule engine takes a catalog as an argument so tests can run smaller ones;
// evaluation order is always catalog definition order.
var DefaultBadgeCatalog = []BadgeDefinition{
	// Bible reading
	{
		Code:         "FIRST_STEPS",
		Name:         "First Steps",
		Description:  "Completed your first reading plan",
		Rarity:       "common",
		RewardPoints: 25,
		Requirement:  local(CounterPlansCompleted, 1),
	},
	{
		Code:         "DEVOTED_READER",
		Name:         "Devoted Reader",
		Description:  "Completed 5 reading plans",
		Rarity:       "rare",
		RewardPoints: 75,
		Requirement:  local(CounterPlansCompleted, 5),
	},
	{
		Code:         "SCRIPTURE_SCHOLAR",
		Name:         "Scripture Scholar",
		Description:  "Completed 25 reading plans",
		Rarity:       "epic",
		RewardPoints: 200,
		Requirement:  local(CounterPlansCompleted, 25),
	},

	// Fitness
	{
		Code:         "FIRST_WORKOUT",
		Name:         "Off the Couch",
		Description:  "Logged your first workout",
		Rarity:       "common",
		RewardPoints: 25,
		Requirement:  local(CounterWorkoutsCompleted, 1),
	},
	{
		Code:         "WORKOUT_10",
		Name:         "Building the Habit",
		Description:  "Logged 10 workouts",
		Rarity:       "rare",
		RewardPoints: 75,
		Requirement:  local(CounterWorkoutsCompleted, 10),
	},
	{
		Code:         "WORKOUT_50",
		Name:         "Iron Will",
		Description:  "Logged 50 workouts",
		Rarity:       "epic",
		RewardPoints: 200,
		Requirement:  local(CounterWorkoutsCompleted, 50),
	},

	// Meditation
	{
		Code:         "STILL_WATERS",
		Name:         "Still Waters",
		Description:  "Finished your first meditation",
		Rarity:       "common",
		RewardPoints: 25,
		Requirement:  local(CounterMeditationsCompleted, 1),
	},
	{
		Code:         "PEACEFUL_MIND",
		Name:         "Peaceful Mind",
		Description:  "Finished 20 meditations",
		Rarity:       "rare",
		RewardPoints: 100,
		Requirement:  local(CounterMeditationsCompleted, 20),
	},

	// Nutrition
	{
		Code:         "HOME_COOK",
		Name:         "Home Cook",
		Description:  "Cooked 5 recipes",
		Rarity:       "common",
		RewardPoints: 50,
		Requirement:  local(CounterRecipesCooked, 5),
	},
	{
		Code:         "KITCHEN_MASTER",
		Name:         "Kitchen Master",
		Description:  "Cooked 25 recipes",
		Rarity:       "epic",
		RewardPoints: 150,
		Requirement:  local(CounterRecipesCooked, 25),
	},

	// Self-care
	{
		Code:         "SELF_CARE_START",
		Name:         "Me Time",
		Description:  "Completed 3 self-care activities",
		Rarity:       "common",
		RewardPoints: 30,
		Requirement:  local(CounterSelfCareCompleted, 3),
	},
	{
		Code:         "BALANCED_LIFE",
		Name:         "Balanced Life",
		Description:  "Completed 15 self-care activities",
		Rarity:       "rare",
		RewardPoints: 100,
		Requirement:  local(CounterSelfCareCompleted, 15),
	},

	// Streaks
	{
		Code:         "WEEK_OF_FAITH",
		Name:         "Week of Faith",
		Description:  "7 days active in a row",
		Rarity:       "rare",
		RewardPoints: 70,
		Requirement:  local(CounterCurrentStreak, 7),
	},
	{
		Code:         "MONTH_OF_FAITH",
		Name:         "Month of Faith",
		Description:  "30 days active in a row",
		Rarity:       "epic",
		RewardPoints: 300,
		Requirement:  local(CounterCurrentStreak, 30),
	},
	{
		Code:         "CENTURION",
		Name:         "Centurion",
		Description:  "100 days active in a row",
		Rarity:       "legendary",
		RewardPoints: 1000,
		Requirement:  local(CounterCurrentStreak, 100),
	},

	// Levels
	{
		Code:         "LEVEL_5",
		Name:         "Rising Up",
		Description:  "Reached level 5",
		Rarity:       "rare",
		RewardPoints: 100,
		Requirement:  local(CounterLevel, 5),
	},
	{
		Code:         "LEVEL_10",
		Name:         "Overcomer",
		Description:  "Reached level 10",
		Rarity:       "epic",
		RewardPoints: 250,
		Requirement:  local(CounterLevel, 10),
	},

	// Community
	{
		Code:         "FIRST_FRIEND",
		Name:         "Better Together",
		Description:  "Made your first friend",
		Rarity:       "common",
		RewardPoints: 25,
		Requirement:  external(CounterFriends, 1),
	},
	{
		Code:         "SOCIAL_BUTTERFLY",
		Name:         "Social Butterfly",
		Description:  "Made 10 friends",
		Rarity:       "rare",
		RewardPoints: 100,
		Requirement:  external(CounterFriends, 10),
	},
	{
		Code:         "ENCOURAGER",
		Name:         "Encourager",
		Description:  "Left 10 comments on the community feed",
		Rarity:       "common",
		RewardPoints: 50,
		Requirement:  external(CounterComments, 10),
	},
	{
		Code:         "STORYTELLER",
		Name:         "Storyteller",
		Description:  "Shared 5 photos",
		Rarity:       "common",
		RewardPoints: 50,
		Requirement:  external(CounterPhotos, 5),
	},
	{
		Code:         "PEN_PAL",
		Name:         "Pen Pal",
		Description:  "Sent 25 messages",
		Rarity:       "rare",
		RewardPoints: 75,
		Requirement:  external(CounterMessages, 25),
	},
}

// BadgeByCode looks a badge up in a catalog; nil if absent.
func BadgeByCode(catalog []BadgeDefinition, code string) *BadgeDefinition {
	for i := range catalog {
		if catalog[i].Code == code {
			return &catalog[i]
		}
	}
	return nil
}
