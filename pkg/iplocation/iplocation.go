// Package iplocation 基于 ip2region 离线库解析IP归属地
package iplocation

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"
)

const (
	LocationIntranet = "内网地址"
	LocationUnknown  = "未知地区"
)

// Locator IP归属地查询，searcher 为空时只区分内网与未知
type Locator struct {
	mu       sync.Mutex
	searcher *xdb.Searcher
}

// New 加载 xdb 文件，路径为空时返回不带离线库的查询器
func New(dbPath string) (*Locator, error) {
	if dbPath == "" {
		return &Locator{}, nil
	}
	buf, err := xdb.LoadContentFromFile(dbPath)
	if err != nil {
		return &Locator{}, fmt.Errorf("读取ip2region数据文件失败: %w", err)
	}
	searcher, err := xdb.NewWithBuffer(buf)
	if err != nil {
		return &Locator{}, fmt.Errorf("创建ip2region查询对象失败: %w", err)
	}
	return &Locator{searcher: searcher}, nil
}

// Lookup 返回IP所在地区名，优先城市，其次省份、国家
func (l *Locator) Lookup(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return LocationUnknown
	}
	if IsIntranetIP(parsed) {
		return LocationIntranet
	}
	if l == nil || l.searcher == nil {
		return LocationUnknown
	}

	l.mu.Lock()
	record, err := l.searcher.SearchByStr(ip)
	l.mu.Unlock()
	if err != nil {
		return LocationUnknown
	}
	return regionName(record)
}

// regionName 解析 国家|区域|省份|城市|运营商 格式的记录
func regionName(record string) string {
	fields := strings.Split(record, "|")
	for _, idx := range []int{3, 2, 0} {
		if len(fields) > idx && fields[idx] != "0" && fields[idx] != "" {
			return fields[idx]
		}
	}
	return LocationUnknown
}

// IsIntranetIP 判断IP是否为内网或回环地址
func IsIntranetIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		return true
	}
	return ip.IsUnspecified()
}
