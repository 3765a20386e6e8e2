package constant

const (
	HeaderCustomUser  = "X-Custom-User"
	HeaderCustomToken = "X-Custom-Token"
)

// 游戏阶段
const (
	GAME_IDLE      = iota + 0 // 0、未启动
	GAME_BETTING              // 1、下注阶段
	GAME_PREPARING            // 2、准备阶段(已开出崩盘点,未公开)
	GAME_RUNNING              // 3、飞行中
	GAME_ENDED                // 4、已崩盘(冷却)
)

// 游戏请求事件类型
const (
	CRASH_AUTH     = iota + 0 // 0、连接认证
	CRASH_BET                 // 1、下注
	CRASH_CASHOUT             // 2、提现离场
	CRASH_DEPOSIT             // 3、充值申请
	CRASH_WITHDRAW            // 4、提款申请
)

// 游戏响应事件类型
const (
	EVENT_GAME_STATE       = iota + 0 // 0、阶段变更(广播)
	EVENT_MULTIPLIER                  // 1、倍数更新(广播)
	EVENT_CRASH                       // 2、崩盘(广播)
	EVENT_HISTORY                     // 3、历史记录(广播)
	EVENT_PLAYER_COUNT                // 4、在线人数(广播)
	EVENT_BALANCE                     // 5、余额更新(定向)
	EVENT_BET_SUCCESS                 // 6、下注成功(定向)
	EVENT_BET_ERROR                   // 7、下注失败(定向)
	EVENT_CASHOUT_SUCCESS             // 8、提现成功(定向)
	EVENT_DEPOSIT_RESULT              // 9、充值申请结果(定向)
	EVENT_WITHDRAW_RESULT             // 10、提款申请结果(定向)
	EVENT_FORCE_DISCONNECT            // 11、强制断开(定向)
	EVENT_ERROR                       // 12、错误请求
)

// 筹码历史记录状态
const (
	BET_STATE_PLACE   = iota + 0 // 0、下注扣款
	BET_STATE_CASHOUT            // 1、提现入账
	BET_STATE_REFUND             // 2、下注退款
)

// 充值/提款申请状态
const (
	TransferPending   = "pending"
	TransferCompleted = "completed"
	TransferRejected  = "rejected"
)

// 账号状态
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

// 响应码
const (
	Code10000 = 10000 // OK
	Code10001 = 10001 // 参数异常
	Code10002 = 10002 // 用户名已存在
	Code10003 = 10003 // 邮箱已存在
	Code10007 = 10007 // 登录失败
	Code10010 = 10010 // 用户不存在
	Code10012 = 10012 // 用户未登录
	Code10014 = 10014 // 账号已被封禁
	Code99999 = 99999 // 系统异常
)

// 错误信息
const (
	OK            = "OK"
	ParamError    = "Valid username (>=3), password (>=6), and email required."
	UsernameExist = "Username already exists"
	EmailExist    = "Email address already registered."
	LoginFailed   = "Invalid username or password"
	UserNotExist  = "用户不存在"
	UserNotLogin  = "用户未登录"
	UserBlocked   = "You Have Been Blocked By The Server"
	Error         = "系统异常"
)
