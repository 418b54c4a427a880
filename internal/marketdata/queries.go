package marketdata

// GraphQL documents sent to the indexer API.
const (
	recentTokensQuery = `
query RecentTokens($limit: Int!) {
  tokens(orderBy: {createdAt: DESC}, limit: $limit) {
    mintAddress
    name
    symbol
    decimals
    uri
    creator
    createdAt
    lastPriceSol
    lastPriceUsd
    tradeVolumeSol
    buyCount
    sellCount
    holderCount
    bondingCurveProgress
  }
}`

	tokenStatsQuery = `
query TokenStats($mint: String!, $since: DateTime!) {
  tokenStats(mintAddress: $mint, since: $since) {
    buyCount
    sellCount
    distinctBuyers
    distinctSellers
    buyVolumeUsd
    sellVolumeUsd
    topHolderConcentration
    poolBalanceSol
    bondingCurveProgress
  }
}`

	tokenPriceQuery = `
query TokenPrice($mint: String!) {
  tokenPrice(mintAddress: $mint) {
    priceSol
    priceUsd
    observedAt
  }
}`

	priceHistoryQuery = `
query PriceHistory($mint: String!, $limit: Int!) {
  priceHistory(mintAddress: $mint, orderBy: {timestamp: DESC}, limit: $limit) {
    timestampMs
    priceSol
    priceUsd
  }
}`
)
