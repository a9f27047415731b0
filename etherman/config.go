package etherman

import "time"

const DefaultRPCTimeout = 10 * time.Second

type Config struct {
	URL                   string // json rpc url of the source chain node
	BridgeContractAddress string // 0x-prefixed hex address of the bridge contract
	RPCTimeout            time.Duration
}
