/*
Package proxy terminates TLS for every configured listen port, selects a
backend per routes.Table's routing rule, and forwards HTTP/1.1 traffic
(including WebSocket upgrades) with a per-request httputil.ReverseProxy.
Port 80 is a bare 301-to-HTTPS redirector whenever 443 is also configured.
*/
package proxy
