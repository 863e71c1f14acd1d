package chain

// Minimal ABIs with only the read functions the oracle needs.

const masterChefABI = `[
  {"constant": true, "inputs": [], "name": "poolLength", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
  {"constant": true, "inputs": [{"name": "", "type": "uint256"}], "name": "poolInfo", "outputs": [
    {"name": "lpToken", "type": "address"},
    {"name": "allocPoint", "type": "uint256"},
    {"name": "lastRewardBlock", "type": "uint256"},
    {"name": "accAcePerShare", "type": "uint256"}
  ], "type": "function"},
  {"constant": true, "inputs": [{"name": "", "type": "uint256"}, {"name": "", "type": "address"}], "name": "userInfo", "outputs": [
    {"name": "amount", "type": "uint256"},
    {"name": "rewardDebt", "type": "uint256"}
  ], "type": "function"},
  {"constant": true, "inputs": [], "name": "totalAllocPoint", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "acePerBlock", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "BONUS_MULTIPLIER", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "bonusEndBlock", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "startBlock", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "devaddr", "outputs": [{"name": "", "type": "address"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "migrator", "outputs": [{"name": "", "type": "address"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "owner", "outputs": [{"name": "", "type": "address"}], "type": "function"}
]`

const pairABI = `[
  {"constant": true, "inputs": [], "name": "getReserves", "outputs": [
    {"name": "reserve0", "type": "uint112"},
    {"name": "reserve1", "type": "uint112"},
    {"name": "blockTimestampLast", "type": "uint32"}
  ], "type": "function"},
  {"constant": true, "inputs": [], "name": "token0", "outputs": [{"name": "", "type": "address"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "token1", "outputs": [{"name": "", "type": "address"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "totalSupply", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
  {"constant": true, "inputs": [{"name": "", "type": "address"}], "name": "balanceOf", "outputs": [{"name": "", "type": "uint256"}], "type": "function"}
]`

const erc20ABI = `[
  {"constant": true, "inputs": [], "name": "name", "outputs": [{"name": "", "type": "string"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "symbol", "outputs": [{"name": "", "type": "string"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "decimals", "outputs": [{"name": "", "type": "uint8"}], "type": "function"},
  {"constant": true, "inputs": [], "name": "totalSupply", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
  {"constant": true, "inputs": [{"name": "", "type": "address"}], "name": "balanceOf", "outputs": [{"name": "", "type": "uint256"}], "type": "function"}
]`

const factoryABI = `[
  {"constant": true, "inputs": [{"name": "", "type": "address"}, {"name": "", "type": "address"}], "name": "getPair", "outputs": [{"name": "", "type": "address"}], "type": "function"}
]`
