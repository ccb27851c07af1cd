package mediation

const (
	Env_AwsAccountId    = "AWS_ACCOUNT_ID"
	Env_AwsEndpoint     = "AWS_ENDPOINT"
	Env_AwsRegion       = "AWS_REGION"
	Env_Branch          = "BRANCH"
	Env_DbAwsEndpoint   = "DB_AWS_ENDPOINT"
	Env_Env             = "ENV"
	Env_EnvFile         = "ENV_FILE"
	Env_EnvTag          = "ENV_TAG"
	Env_LogLevel        = "LOG_LEVEL"
	Env_MetricsEndpoint = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"
	Env_Sha             = "SHA"
	Env_ShaTag          = "SHA_TAG"
	Env_StoreBackend    = "STORE_BACKEND"
	Env_DiscordAlert    = "DISCORD_ALERT_WEBHOOK"
	Env_DiscordEvents   = "DISCORD_EVENTS_WEBHOOK"
	Env_DiscordTest     = "DISCORD_TEST_WEBHOOK"
	Env_EventsQueue     = "EVENTS_QUEUE_ENABLED"
	Env_MediatorStaff   = "MEDIATOR_STAFF"
	Env_DatabaseUrl     = "DATABASE_URL"
	Env_SqlitePath      = "SQLITE_PATH"
	Env_HttpAddr        = "HTTP_ADDR"
	Env_EventQueueDepth = "EVENT_QUEUE_DEPTH"
	Env_MediatorUrl     = "MEDIATOR_URL"
	Env_MediatorActor   = "MEDIATOR_ACTOR"
	Env_IpfsApiUrl      = "IPFS_API_URL"
	Env_IpfsPubsubTopic = "IPFS_PUBSUB_TOPIC"
)

const (
	EnvTag_Dev  = "dev"
	EnvTag_Qa   = "qa"
	EnvTag_Prod = "prod"
)

const ServiceName = "trade-mediator"
