package client

const obtainKrakenTokenMutation = `mutation obtainKrakenToken($input: ObtainJSONWebTokenInput!) {
  obtainKrakenToken(input: $input) {
    token
    payload
    refreshToken
    refreshExpiresIn
    __typename
  }
}`

const viewerAccountsQuery = `query getViewerAccounts($propertiesActiveFrom: DateTime) {
  viewer {
    preferredName
    email
    accounts {
      number
      status
      accountType
      balance
      address {
        streetAddress
        locality
        postalCode
        __typename
      }
      ... on AccountType {
        properties(activeFrom: $propertiesActiveFrom) {
          address
          occupancyPeriods {
            effectiveFrom
            effectiveTo
            __typename
          }
          electricityMeterPoints {
            id
            __typename
          }
          gasMeterPoints {
            id
            __typename
          }
          __typename
        }
        __typename
      }
      __typename
    }
    __typename
  }
}`

const measurementsQuery = `query getMeasurements($accountNumber: String!, $first: Int!, $utilityFilters: [UtilityFiltersInput!], $startAt: DateTime, $endAt: DateTime, $timezone: String, $cursor: String) {
  account(accountNumber: $accountNumber) {
    properties {
      measurements(
        first: $first
        after: $cursor
        utilityFilters: $utilityFilters
        startAt: $startAt
        endAt: $endAt
        timezone: $timezone
      ) {
        edges {
          node {
            value
            ... on MeasurementType {
              source
              unit
              readAt
              metaData {
                statistics {
                  type
                  label
                  description
                  value
                  costExclTax {
                    estimatedAmount
                    costCurrency
                    __typename
                  }
                  costInclTax {
                    estimatedAmount
                    costCurrency
                    __typename
                  }
                  __typename
                }
                __typename
              }
              __typename
            }
            ... on IntervalMeasurementType {
              startAt
              endAt
              __typename
            }
            metaData {
              utilityFilters {
                __typename
              }
              __typename
            }
            __typename
          }
          __typename
        }
        pageInfo {
          hasNextPage
          endCursor
          __typename
        }
        __typename
      }
      __typename
    }
    __typename
  }
}`
