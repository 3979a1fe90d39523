package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionBootstrap     = "database_bootstrap"
	ActionHandleNavPVT  = "handle_nav_pvt"
	ActionWritePoint    = "write_point"
	ActionConsumeEvents = "consume_gps_events"
)
