package domain

const (
	RoleBuyer  = "BUYER"
	RoleSeller = "SELLER"
	RoleAdmin  = "ADMIN"
)

const (
	PropertyStatusPending  = "PENDING"
	PropertyStatusApproved = "APPROVED"
	PropertyStatusRejected = "REJECTED"
)

const (
	TxnTypeDeposit        = "DEPOSIT"
	TxnTypeWithdraw       = "WITHDRAW"
	TxnTypeCommission     = "COMMISSION"
	TxnTypePremiumUpgrade = "PREMIUM_UPGRADE"
	TxnTypeAdminAdd       = "ADMIN_ADD"
	TxnTypeAdminDeduct    = "ADMIN_DEDUCT"
)

const (
	TxnStatusPending   = "PENDING"
	TxnStatusCompleted = "COMPLETED"
	TxnStatusFailed    = "FAILED"
	TxnStatusCancelled = "CANCELLED"
)

const (
	NotifTypeNewMessage      = "NEW_MESSAGE"
	NotifTypeNewConversation = "NEW_CONVERSATION"
	NotifTypeDepositResult   = "DEPOSIT_RESULT"
	NotifTypeListingApproved = "LISTING_APPROVED"
	NotifTypeListingRejected = "LISTING_REJECTED"
	NotifTypeWalletAdjusted  = "WALLET_ADJUSTED"
)
