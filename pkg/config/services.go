package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/appser/appser-store/pkg/utils"
)

type Service struct {
	Host     string
	Port     string
	Protocol string
}

type ServicesConfig struct {
	LocalIP   string
	HTTP      Service
	WebSocket Service
	GRPC      Service
}

// LoadServicesConfig describes where this node can be reached.
func LoadServicesConfig(cfg *ServerConfig) *ServicesConfig {
	localIP := utils.GetLocalIP()

	return &ServicesConfig{
		LocalIP: localIP,
		HTTP: Service{
			Host:     getEnvOrDefault("HTTP_HOST", localIP),
			Port:     cfg.HTTPPort,
			Protocol: "http",
		},
		WebSocket: Service{
			Host:     getEnvOrDefault("HTTP_HOST", localIP),
			Port:     cfg.HTTPPort,
			Protocol: "ws",
		},
		GRPC: Service{
			Host:     getEnvOrDefault("GRPC_HOST", localIP),
			Port:     cfg.GRPCPort,
			Protocol: "grpc",
		},
	}
}

func (s *Service) URL() string {
	if s.Protocol == "grpc" {
		return fmt.Sprintf("%s:%s", s.Host, s.Port)
	}
	return fmt.Sprintf("%s://%s:%s", s.Protocol, s.Host, s.Port)
}

// ServiceURLs is what /api/services and the LAN announcement advertise.
func (cfg *ServicesConfig) ServiceURLs() map[string]string {
	return map[string]string{
		"http":      cfg.HTTP.URL(),
		"websocket": cfg.WebSocket.URL() + "/ws/apps/:id",
		"grpc":      cfg.GRPC.URL(),
	}
}

func (cfg *ServicesConfig) GetDiscoveryResponse() map[string]interface{} {
	return map[string]interface{}{
		"local_ip": cfg.LocalIP,
		"services": cfg.ServiceURLs(),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func GetEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1"
	}
	return defaultVal
}
