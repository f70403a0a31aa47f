package config

import "time"

const (
	// Gateway response shaping
	MaxCarouselItems = 6
	MaxRecordItems   = 5
	ExcerptMaxRunes  = 140

	// Gateway base path appended to GATEWAY_URL
	GatewayBasePath = "/api/gateway"

	// Session API client timeout
	SessionRequestTimeout = 15 * time.Second

	// How often idle chat stores are swept
	SessionEvictInterval = time.Minute

	// Telegram limits
	MaxTelegramMessageLen = 4096
	MaxCallbackDataLen    = 64

	// Rate limits (per chat)
	RateLimitPerMinute = 20
	RateLimitBurst     = 5

	// Threads per page in /threads
	ThreadsPerPage         = 5
	RecentMessagesOnSwitch = 6

	// Sender name for chat members without a first name
	BotSenderName = "You"
)
