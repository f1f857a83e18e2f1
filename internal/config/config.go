package config

import (
	"fmt"
	"strings"
	"time"

	clowder "github.com/redhatinsights/app-common-go/pkg/api/v1"
	"github.com/spf13/viper"
)

const (
	ENV_PREFIX = "AGENTIC_BACKEND"

	URL_APP_NAME                   = "URL_App_Name"
	URL_PATH_PREFIX                = "URL_Path_Prefix"
	URL_BASE_PATH                  = "URL_Base_Path"
	HTTP_SHUTDOWN_TIMEOUT          = "HTTP_Shutdown_Timeout"
	SERVICE_TO_SERVICE_CREDENTIALS = "Service_To_Service_Credentials"
	JWT_SIGNING_SECRET             = "JWT_Signing_Secret"
	PROFILE                        = "Enable_Profile"
	BROKERS                        = "Kafka_Brokers"
	DEFAULT_BROKER_ADDRESS         = "kafka:29092"
	KAFKA_SASL_MECHANISM           = "Kafka_SASL_Mechanism"
	KAFKA_SASL_USERNAME            = "Kafka_SASL_Username"
	KAFKA_SASL_PASSWORD            = "Kafka_SASL_Password"
	KAFKA_CA                       = "Kafka_CA"
	CONNECTION_EVENTS_TOPIC        = "Kafka_Connection_Events_Topic"
	CONNECTION_EVENTS_BATCH_SIZE   = "Kafka_Connection_Events_Batch_Size"
	CREDENTIAL_EVENTS_TOPIC        = "Kafka_Credential_Events_Topic"
	CREDENTIAL_EVENTS_GROUP_ID     = "Kafka_Credential_Events_Group_Id"
	CONNECTION_EVENTS_IMPL         = "Connection_Events_Impl"
	CREDENTIAL_STORE_IMPL          = "Credential_Store_Impl"
	CREDENTIAL_CACHE_TTL           = "Credential_Cache_TTL"
	CREDENTIAL_CACHE_SIZE          = "Credential_Cache_Size"
	CONNECTION_MAX_AGE             = "Connection_Max_Age"
	CONNECTION_FAILURE_BACKOFF     = "Connection_Failure_Backoff"
	SECRETS_MANAGER_REGION         = "Secrets_Manager_Region"
	SECRETS_MANAGER_PREFIX         = "Secrets_Manager_Secret_Prefix"
	ACCOUNTS_SERVER_URL            = "Accounts_Server_Url"
	ACCOUNTS_CONNECT_TIMEOUT       = "Accounts_Connect_Timeout"
	ACCOUNTS_OPEN_TIMEOUT          = "Accounts_Open_Timeout"
	ACCOUNTS_READ_TIMEOUT          = "Accounts_Read_Timeout"
	ACCOUNTS_MAX_RETRIES           = "Accounts_Max_Retries"
	GLOBAL_SERVER_URL              = "Global_Server_Url"
	GLOBAL_CONNECT_TIMEOUT         = "Global_Connect_Timeout"
	GLOBAL_OPEN_TIMEOUT            = "Global_Open_Timeout"
	GLOBAL_READ_TIMEOUT            = "Global_Read_Timeout"
	GLOBAL_MAX_RETRIES             = "Global_Max_Retries"
	CONNECTION_RETRY_BACKOFF       = "Connection_Retry_Backoff"
	DB_HOST                        = "DB_Host"
	DB_PORT                        = "DB_Port"
	DB_NAME                        = "DB_Name"
	DB_USER                        = "DB_User"
	DB_PASSWORD                    = "DB_Password"
	DB_SSL_MODE                    = "DB_SSL_Mode"
	DB_SSL_ROOT_CERT               = "DB_SSL_Root_Cert"
	DB_MAX_OPEN_CONNECTIONS        = "DB_Max_Open_Connections"
	DB_QUERY_TIMEOUT               = "DB_Query_Timeout"
	MONITORING_PORT                = "Monitoring_Port"
	API_PORT                       = "API_Port"
	CAPABILITY_CLIENT_NAME         = "Capability_Client_Name"
	CAPABILITY_CLIENT_VERSION      = "Capability_Client_Version"
	CREDENTIAL_CHECK_TENANT_ID     = "Credential_Check_Tenant_Id"
	CREDENTIAL_CHECK_INTEGRATION   = "Credential_Check_Integration"
)

// IntegrationSettings holds the transport knobs for one capability server.
type IntegrationSettings struct {
	ServerUrl      string
	ConnectTimeout time.Duration
	OpenTimeout    time.Duration
	ReadTimeout    time.Duration
	MaxRetries     int
}

type Config struct {
	UrlAppName                  string
	UrlPathPrefix               string
	UrlBasePath                 string
	HttpShutdownTimeout         time.Duration
	ServiceToServiceCredentials map[string]interface{}
	JwtSigningSecret            string
	Profile                     bool
	KafkaBrokers                []string
	KafkaSASLMechanism          string
	KafkaSASLUsername           string
	KafkaSASLPassword           string
	KafkaCA                     string
	ConnectionEventsTopic       string
	ConnectionEventsBatchSize   int
	ConnectionEventsImpl        string
	CredentialEventsTopic       string
	CredentialEventsGroupID     string
	CredentialStoreImpl         string
	CredentialCacheTTL          time.Duration
	CredentialCacheSize         int
	ConnectionMaxAge            time.Duration
	ConnectionFailureBackoff    time.Duration
	ConnectionRetryBackoff      time.Duration
	SecretsManagerRegion        string
	SecretsManagerSecretPrefix  string
	Accounts                    IntegrationSettings
	Global                      IntegrationSettings
	DbHost                      string
	DbPort                      int
	DbName                      string
	DbUser                      string
	DbPassword                  string
	DbSSLMode                   string
	DbSSLRootCert               string
	DbMaxOpenConnections        int
	DbQueryTimeout              time.Duration
	MonitoringPort              int
	ApiPort                     int
	CapabilityClientName        string
	CapabilityClientVersion     string
	CredentialCheckTenantId     string
	CredentialCheckIntegration  string
}

func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", URL_PATH_PREFIX, c.UrlPathPrefix)
	fmt.Fprintf(&b, "%s: %s\n", URL_APP_NAME, c.UrlAppName)
	fmt.Fprintf(&b, "%s: %s\n", URL_BASE_PATH, c.UrlBasePath)
	fmt.Fprintf(&b, "%s: %s\n", HTTP_SHUTDOWN_TIMEOUT, c.HttpShutdownTimeout)
	fmt.Fprintf(&b, "%s: %t\n", PROFILE, c.Profile)
	fmt.Fprintf(&b, "%s: %s\n", BROKERS, c.KafkaBrokers)
	fmt.Fprintf(&b, "%s: %s\n", KAFKA_SASL_MECHANISM, c.KafkaSASLMechanism)
	fmt.Fprintf(&b, "%s: %s\n", CONNECTION_EVENTS_TOPIC, c.ConnectionEventsTopic)
	fmt.Fprintf(&b, "%s: %d\n", CONNECTION_EVENTS_BATCH_SIZE, c.ConnectionEventsBatchSize)
	fmt.Fprintf(&b, "%s: %s\n", CONNECTION_EVENTS_IMPL, c.ConnectionEventsImpl)
	fmt.Fprintf(&b, "%s: %s\n", CREDENTIAL_EVENTS_TOPIC, c.CredentialEventsTopic)
	fmt.Fprintf(&b, "%s: %s\n", CREDENTIAL_EVENTS_GROUP_ID, c.CredentialEventsGroupID)
	fmt.Fprintf(&b, "%s: %s\n", CREDENTIAL_STORE_IMPL, c.CredentialStoreImpl)
	fmt.Fprintf(&b, "%s: %s\n", CREDENTIAL_CACHE_TTL, c.CredentialCacheTTL)
	fmt.Fprintf(&b, "%s: %d\n", CREDENTIAL_CACHE_SIZE, c.CredentialCacheSize)
	fmt.Fprintf(&b, "%s: %s\n", CONNECTION_MAX_AGE, c.ConnectionMaxAge)
	fmt.Fprintf(&b, "%s: %s\n", CONNECTION_FAILURE_BACKOFF, c.ConnectionFailureBackoff)
	fmt.Fprintf(&b, "%s: %s\n", CONNECTION_RETRY_BACKOFF, c.ConnectionRetryBackoff)
	fmt.Fprintf(&b, "%s: %s\n", SECRETS_MANAGER_REGION, c.SecretsManagerRegion)
	fmt.Fprintf(&b, "%s: %s\n", SECRETS_MANAGER_PREFIX, c.SecretsManagerSecretPrefix)
	fmt.Fprintf(&b, "%s: %s\n", ACCOUNTS_SERVER_URL, c.Accounts.ServerUrl)
	fmt.Fprintf(&b, "%s: %s\n", ACCOUNTS_CONNECT_TIMEOUT, c.Accounts.ConnectTimeout)
	fmt.Fprintf(&b, "%s: %s\n", ACCOUNTS_OPEN_TIMEOUT, c.Accounts.OpenTimeout)
	fmt.Fprintf(&b, "%s: %s\n", ACCOUNTS_READ_TIMEOUT, c.Accounts.ReadTimeout)
	fmt.Fprintf(&b, "%s: %d\n", ACCOUNTS_MAX_RETRIES, c.Accounts.MaxRetries)
	fmt.Fprintf(&b, "%s: %s\n", GLOBAL_SERVER_URL, c.Global.ServerUrl)
	fmt.Fprintf(&b, "%s: %s\n", GLOBAL_CONNECT_TIMEOUT, c.Global.ConnectTimeout)
	fmt.Fprintf(&b, "%s: %s\n", GLOBAL_OPEN_TIMEOUT, c.Global.OpenTimeout)
	fmt.Fprintf(&b, "%s: %s\n", GLOBAL_READ_TIMEOUT, c.Global.ReadTimeout)
	fmt.Fprintf(&b, "%s: %d\n", GLOBAL_MAX_RETRIES, c.Global.MaxRetries)
	fmt.Fprintf(&b, "%s: %s\n", DB_HOST, c.DbHost)
	fmt.Fprintf(&b, "%s: %d\n", DB_PORT, c.DbPort)
	fmt.Fprintf(&b, "%s: %s\n", DB_NAME, c.DbName)
	fmt.Fprintf(&b, "%s: %s\n", DB_USER, c.DbUser)
	fmt.Fprintf(&b, "%s: %s\n", DB_SSL_MODE, c.DbSSLMode)
	fmt.Fprintf(&b, "%s: %d\n", DB_MAX_OPEN_CONNECTIONS, c.DbMaxOpenConnections)
	fmt.Fprintf(&b, "%s: %s\n", DB_QUERY_TIMEOUT, c.DbQueryTimeout)
	fmt.Fprintf(&b, "%s: %d\n", MONITORING_PORT, c.MonitoringPort)
	fmt.Fprintf(&b, "%s: %d\n", API_PORT, c.ApiPort)
	fmt.Fprintf(&b, "%s: %s\n", CAPABILITY_CLIENT_NAME, c.CapabilityClientName)
	fmt.Fprintf(&b, "%s: %s\n", CAPABILITY_CLIENT_VERSION, c.CapabilityClientVersion)
	return b.String()
}

func GetConfig() *Config {
	options := viper.New()

	options.SetDefault(URL_PATH_PREFIX, "api")
	options.SetDefault(URL_APP_NAME, "agentic-backend")
	options.SetDefault(HTTP_SHUTDOWN_TIMEOUT, 2)
	options.SetDefault(SERVICE_TO_SERVICE_CREDENTIALS, "")
	options.SetDefault(JWT_SIGNING_SECRET, "")
	options.SetDefault(PROFILE, false)
	options.SetDefault(BROKERS, []string{DEFAULT_BROKER_ADDRESS})
	options.SetDefault(KAFKA_SASL_MECHANISM, "")
	options.SetDefault(KAFKA_CA, "")
	options.SetDefault(CONNECTION_EVENTS_TOPIC, "platform.agentic-backend.connection-events")
	options.SetDefault(CONNECTION_EVENTS_BATCH_SIZE, 100)
	options.SetDefault(CONNECTION_EVENTS_IMPL, "fake")
	options.SetDefault(CREDENTIAL_EVENTS_TOPIC, "platform.agentic-backend.credential-events")
	options.SetDefault(CREDENTIAL_EVENTS_GROUP_ID, "agentic-backend-credential-consumer")
	options.SetDefault(CREDENTIAL_STORE_IMPL, "sql")

	options.SetDefault(CREDENTIAL_CACHE_TTL, 300)
	options.SetDefault(CREDENTIAL_CACHE_SIZE, 10000)
	options.SetDefault(CONNECTION_MAX_AGE, 1800)
	options.SetDefault(CONNECTION_FAILURE_BACKOFF, 30)
	options.SetDefault(CONNECTION_RETRY_BACKOFF, 1000)

	options.SetDefault(SECRETS_MANAGER_REGION, "us-east-1")
	options.SetDefault(SECRETS_MANAGER_PREFIX, "agentic-backend/credentials")

	options.SetDefault(ACCOUNTS_SERVER_URL, "http://localhost:8001/mcp")
	options.SetDefault(ACCOUNTS_CONNECT_TIMEOUT, 10)
	options.SetDefault(ACCOUNTS_OPEN_TIMEOUT, 8)
	options.SetDefault(ACCOUNTS_READ_TIMEOUT, 300)
	options.SetDefault(ACCOUNTS_MAX_RETRIES, 1)

	options.SetDefault(GLOBAL_SERVER_URL, "http://localhost:8002/mcp")
	options.SetDefault(GLOBAL_CONNECT_TIMEOUT, 5)
	options.SetDefault(GLOBAL_OPEN_TIMEOUT, 3)
	options.SetDefault(GLOBAL_READ_TIMEOUT, 100)
	options.SetDefault(GLOBAL_MAX_RETRIES, 0)

	options.SetDefault(DB_HOST, "localhost")
	options.SetDefault(DB_PORT, 5432)
	options.SetDefault(DB_NAME, "agentic-backend")
	options.SetDefault(DB_USER, "insights")
	options.SetDefault(DB_PASSWORD, "insights")
	options.SetDefault(DB_SSL_MODE, "disable")
	options.SetDefault(DB_SSL_ROOT_CERT, "")
	options.SetDefault(DB_MAX_OPEN_CONNECTIONS, 20)
	options.SetDefault(DB_QUERY_TIMEOUT, 5)

	options.SetDefault(MONITORING_PORT, 9000)
	options.SetDefault(API_PORT, 8000)

	options.SetDefault(CAPABILITY_CLIENT_NAME, "agentic-backend")
	options.SetDefault(CAPABILITY_CLIENT_VERSION, "1.0.0")

	options.SetDefault(CREDENTIAL_CHECK_TENANT_ID, "")
	options.SetDefault(CREDENTIAL_CHECK_INTEGRATION, "accounts")

	options.SetEnvPrefix(ENV_PREFIX)
	options.AutomaticEnv()

	if clowder.IsClowderEnabled() {
		cfg := clowder.LoadedConfig

		if cfg.Database != nil {
			options.SetDefault(DB_HOST, cfg.Database.Hostname)
			options.SetDefault(DB_PORT, cfg.Database.Port)
			options.SetDefault(DB_NAME, cfg.Database.Name)
			options.SetDefault(DB_USER, cfg.Database.Username)
			options.SetDefault(DB_PASSWORD, cfg.Database.Password)
			options.SetDefault(DB_SSL_MODE, cfg.Database.SslMode)
		}

		if cfg.Kafka != nil && len(cfg.Kafka.Brokers) > 0 {
			brokers := make([]string, 0, len(cfg.Kafka.Brokers))
			for _, broker := range cfg.Kafka.Brokers {
				port := 0
				if broker.Port != nil {
					port = *broker.Port
				}
				brokers = append(brokers, fmt.Sprintf("%s:%d", broker.Hostname, port))
			}
			options.SetDefault(BROKERS, brokers)
		}

		if cfg.PublicPort != nil {
			options.SetDefault(API_PORT, *cfg.PublicPort)
		}
		options.SetDefault(MONITORING_PORT, cfg.MetricsPort)
	}

	return &Config{
		UrlPathPrefix:               options.GetString(URL_PATH_PREFIX),
		UrlAppName:                  options.GetString(URL_APP_NAME),
		UrlBasePath:                 buildUrlBasePath(options.GetString(URL_PATH_PREFIX), options.GetString(URL_APP_NAME)),
		HttpShutdownTimeout:         options.GetDuration(HTTP_SHUTDOWN_TIMEOUT) * time.Second,
		ServiceToServiceCredentials: options.GetStringMap(SERVICE_TO_SERVICE_CREDENTIALS),
		JwtSigningSecret:            options.GetString(JWT_SIGNING_SECRET),
		Profile:                     options.GetBool(PROFILE),
		KafkaBrokers:                options.GetStringSlice(BROKERS),
		KafkaSASLMechanism:          options.GetString(KAFKA_SASL_MECHANISM),
		KafkaSASLUsername:           options.GetString(KAFKA_SASL_USERNAME),
		KafkaSASLPassword:           options.GetString(KAFKA_SASL_PASSWORD),
		KafkaCA:                     options.GetString(KAFKA_CA),
		ConnectionEventsTopic:       options.GetString(CONNECTION_EVENTS_TOPIC),
		ConnectionEventsBatchSize:   options.GetInt(CONNECTION_EVENTS_BATCH_SIZE),
		ConnectionEventsImpl:        options.GetString(CONNECTION_EVENTS_IMPL),
		CredentialEventsTopic:       options.GetString(CREDENTIAL_EVENTS_TOPIC),
		CredentialEventsGroupID:     options.GetString(CREDENTIAL_EVENTS_GROUP_ID),
		CredentialStoreImpl:         options.GetString(CREDENTIAL_STORE_IMPL),
		CredentialCacheTTL:          options.GetDuration(CREDENTIAL_CACHE_TTL) * time.Second,
		CredentialCacheSize:         options.GetInt(CREDENTIAL_CACHE_SIZE),
		ConnectionMaxAge:            options.GetDuration(CONNECTION_MAX_AGE) * time.Second,
		ConnectionFailureBackoff:    options.GetDuration(CONNECTION_FAILURE_BACKOFF) * time.Second,
		ConnectionRetryBackoff:      options.GetDuration(CONNECTION_RETRY_BACKOFF) * time.Millisecond,
		SecretsManagerRegion:        options.GetString(SECRETS_MANAGER_REGION),
		SecretsManagerSecretPrefix:  options.GetString(SECRETS_MANAGER_PREFIX),
		Accounts: IntegrationSettings{
			ServerUrl:      options.GetString(ACCOUNTS_SERVER_URL),
			ConnectTimeout: options.GetDuration(ACCOUNTS_CONNECT_TIMEOUT) * time.Second,
			OpenTimeout:    options.GetDuration(ACCOUNTS_OPEN_TIMEOUT) * time.Second,
			ReadTimeout:    options.GetDuration(ACCOUNTS_READ_TIMEOUT) * time.Second,
			MaxRetries:     options.GetInt(ACCOUNTS_MAX_RETRIES),
		},
		Global: IntegrationSettings{
			ServerUrl:      options.GetString(GLOBAL_SERVER_URL),
			ConnectTimeout: options.GetDuration(GLOBAL_CONNECT_TIMEOUT) * time.Second,
			OpenTimeout:    options.GetDuration(GLOBAL_OPEN_TIMEOUT) * time.Second,
			ReadTimeout:    options.GetDuration(GLOBAL_READ_TIMEOUT) * time.Second,
			MaxRetries:     options.GetInt(GLOBAL_MAX_RETRIES),
		},
		DbHost:                     options.GetString(DB_HOST),
		DbPort:                     options.GetInt(DB_PORT),
		DbName:                     options.GetString(DB_NAME),
		DbUser:                     options.GetString(DB_USER),
		DbPassword:                 options.GetString(DB_PASSWORD),
		DbSSLMode:                  options.GetString(DB_SSL_MODE),
		DbSSLRootCert:              options.GetString(DB_SSL_ROOT_CERT),
		DbMaxOpenConnections:       options.GetInt(DB_MAX_OPEN_CONNECTIONS),
		DbQueryTimeout:             options.GetDuration(DB_QUERY_TIMEOUT) * time.Second,
		MonitoringPort:             options.GetInt(MONITORING_PORT),
		ApiPort:                    options.GetInt(API_PORT),
		CapabilityClientName:       options.GetString(CAPABILITY_CLIENT_NAME),
		CapabilityClientVersion:    options.GetString(CAPABILITY_CLIENT_VERSION),
		CredentialCheckTenantId:    options.GetString(CREDENTIAL_CHECK_TENANT_ID),
		CredentialCheckIntegration: options.GetString(CREDENTIAL_CHECK_INTEGRATION),
	}
}

func buildUrlBasePath(pathPrefix string, appName string) string {
	return fmt.Sprintf("/%s/%s/v1", pathPrefix, appName)
}
