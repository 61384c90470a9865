// Các GraphQL query body dùng bởi crawler. Query được giữ nguyên văn,
// tầng client không phụ thuộc vào nội dung của chúng.

package githubapi

const SearchReposQuery = `
query SearchRepos($query: String!, $first: Int!, $after: String) {
	search(query: $query, type: REPOSITORY, first: $first, after: $after) {
		repositoryCount
		pageInfo {
			hasNextPage
			endCursor
		}
		edges {
			node {
				... on Repository {
					id
					nameWithOwner
					name
					owner {
						id
						login
						__typename
					}
					description
					primaryLanguage {
						name
					}
					stargazerCount
					forkCount
					isPrivate
					createdAt
					updatedAt
					pushedAt
				}
			}
		}
	}
}
`

const RepoDetailsQuery = `
query GetRepoDetails($owner: String!, $name: String!) {
	repository(owner: $owner, name: $name) {
		id
		isFork
		parent {
			nameWithOwner
		}
		repositoryTopics(first: 10) {
			nodes {
				topic {
					name
				}
			}
		}
		watchers {
			totalCount
		}
		issues(states: OPEN) {
			totalCount
		}
		pullRequests {
			totalCount
		}
		defaultBranchRef {
			target {
				... on Commit {
					history(first: 1) {
						totalCount
					}
				}
			}
		}
	}
}
`

const UserLookupQuery = `
query GetUser($login: String!) {
	user(login: $login) {
		id
		login
		name
	}
}
`

const UserDetailsQuery = `
query GetUserDetails($login: String!) {
	user(login: $login) {
		id
		login
		name
		bio
		email
		company
		location
		websiteUrl
		twitterUsername
		avatarUrl
		url
		createdAt
		updatedAt
		repositories(first: 100, privacy: PUBLIC) {
			totalCount
			nodes {
				id
				name
				stargazerCount
				forkCount
				primaryLanguage {
					name
				}
			}
		}
		gists(first: 100, privacy: PUBLIC) {
			totalCount
		}
		followers(first: 1) {
			totalCount
		}
		following(first: 1) {
			totalCount
		}
		organizations(first: 100) {
			nodes {
				id
				login
				name
			}
		}
		contributionsCollection {
			totalCommitContributions
			totalPullRequestContributions
			totalIssueContributions
			totalPullRequestReviewContributions
			contributionCalendar {
				totalContributions
			}
		}
		starredRepositories(first: 1) {
			totalCount
		}
	}
}
`

const UserFollowersQuery = `
query GetFollowers($login: String!, $first: Int!, $after: String) {
	user(login: $login) {
		id
		followers(first: $first, after: $after) {
			pageInfo {
				hasNextPage
				endCursor
			}
			nodes {
				id
				login
			}
		}
	}
}
`

const UserFollowingQuery = `
query GetFollowing($login: String!, $first: Int!, $after: String) {
	user(login: $login) {
		id
		following(first: $first, after: $after) {
			pageInfo {
				hasNextPage
				endCursor
			}
			nodes {
				id
				login
			}
		}
	}
}
`

const UserStarredReposQuery = `
query GetStarredRepos($login: String!, $first: Int!, $after: String) {
	user(login: $login) {
		starredRepositories(first: $first, after: $after) {
			pageInfo {
				hasNextPage
				endCursor
			}
			edges {
				starredAt
				node {
					id
					nameWithOwner
				}
			}
		}
	}
}
`

const RepoCommitsQuery = `
query GetRepoCommits($owner: String!, $name: String!, $first: Int!, $after: String) {
	repository(owner: $owner, name: $name) {
		id
		defaultBranchRef {
			target {
				... on Commit {
					history(first: $first, after: $after) {
						pageInfo {
							hasNextPage
							endCursor
						}
						totalCount
						nodes {
							author {
								user {
									id
									login
								}
							}
							committedDate
						}
					}
				}
			}
		}
	}
}
`

const UserRepoContributionsQuery = `
query GetUserRepoContributions($owner: String!, $name: String!, $login: String!) {
	repository(owner: $owner, name: $name) {
		id
		name
		issues(first: 1, filterBy: {createdBy: $login}) {
			totalCount
		}
		pullRequests(first: 1, states: [OPEN, CLOSED, MERGED]) {
			totalCount
		}
	}
	user(login: $login) {
		id
		login
		contributionsCollection {
			totalCommitContributions
			totalPullRequestContributions
			totalIssueContributions
			totalPullRequestReviewContributions
		}
	}
}
`
