package config

// ServerRuntimeConfig carries options that come from flags rather than the
// dashboard document: bind address, TLS, and traffic shaping.
type ServerRuntimeConfig struct {
	Addr               string
	Port               int
	CertDir            string
	AcmeEnabled        bool
	BehindLoadBalancer bool
	RateLimit          int
	GzipLevel          int
}
