package net

import (
	"fmt"
	"net"

	"go.uber.org/zap"
)

// OutgoingIP finds the preferred local IP address to put in the share link.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// Networks without internet access still have local interfaces.
		return localIPFallback()
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func localIPFallback() string {
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, address := range addrs {
			if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	zap.L().Warn("no suitable local IP found, falling back to loopback", zap.Error(err))
	return "127.0.0.1"
}

// ShareURL is the address printed for other devices on the LAN.
func ShareURL(ip string, port int) string {
	return fmt.Sprintf("http://%s/", net.JoinHostPort(ip, fmt.Sprint(port)))
}
